package http

import (
	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/proto"
	"github.com/gatechat/gatechat-server/internal/store"
)

func newMessageData(msg *store.Message) proto.NewMessageData {
	data := proto.NewMessageData{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Name:        msg.UserName,
		Avatar:      msg.UserAvatar,
		Message:     msg.Body,
		MessageType: string(msg.Type),
		Timestamp:   msg.CreatedAt,
	}
	if msg.File != nil {
		data.FileData = &proto.FileData{
			FileName: msg.File.FileName,
			FileURL:  msg.File.FileURL,
			FileType: msg.File.FileType,
		}
	}
	return data
}

func onlineUsers(entries []chat.PresenceEntry) []proto.OnlineUser {
	users := make([]proto.OnlineUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, proto.OnlineUser{
			UserID: e.UserID,
			Name:   e.Name,
			Avatar: e.Avatar,
		})
	}
	return users
}

func outboundFromEvent(event *chat.Event) proto.Outbound {
	switch event.Kind {
	case chat.EventOnlineUsers:
		return proto.Outbound{
			Type: proto.OutboundTypeOnlineUsers,
			Data: onlineUsers(event.Users),
		}
	case chat.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.OnlineUser{
				UserID: event.User.UserID,
				Name:   event.User.Name,
				Avatar: event.User.Avatar,
			},
		}
	case chat.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.UserLeftData{
				UserID: event.User.UserID,
				Name:   event.User.Name,
			},
		}
	case chat.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeNewMessage,
			Data: newMessageData(event.Message),
		}
	case chat.EventMessageDeleted:
		return proto.Outbound{
			Type: proto.OutboundTypeMessageDeleted,
			Data: proto.MessageDeletedData{MessageID: event.MessageID},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeMessageError, Data: proto.ErrorData{Message: "unknown event"}}
	}
}

// errorOutbound maps a per-request failure onto the matching error
// event for the originating connection.
func errorOutbound(inboundType string, err error) proto.Outbound {
	outType := proto.OutboundTypeMessageError
	switch inboundType {
	case proto.InboundTypeUploadFile:
		outType = proto.OutboundTypeUploadError
	case proto.InboundTypeDeleteMessage:
		outType = proto.OutboundTypeDeleteError
	}
	return proto.Outbound{Type: outType, Data: proto.ErrorData{Message: err.Error()}}
}
