// Package chat implements the real-time session and broadcast layer:
// per-connection authentication, presence tracking, ordered message
// persistence with room-wide fan-out, and authorized deletion.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/blob"
	"github.com/gatechat/gatechat-server/internal/store"
)

// Verifier resolves a bearer credential to a user record. Implemented
// by the auth service.
type Verifier interface {
	ResolveToken(ctx context.Context, token string) (*store.User, error)
}

// Session is the manager for the single group chat room. Its methods
// are invoked concurrently from independent connection handlers; each
// connection's own events arrive serialized through its read loop.
type Session struct {
	verifier     Verifier
	messages     store.MessageStore
	relay        blob.Relay
	presence     *Registry
	room         *Room
	log          *zerolog.Logger
	historyLimit int
}

// uploadFolder is the object-store folder chat attachments land in.
const uploadFolder = "chat_files"

// NewSession wires the session manager to its collaborators.
func NewSession(verifier Verifier, messages store.MessageStore, relay blob.Relay, logger *zerolog.Logger, historyLimit int) *Session {
	return &Session{
		verifier:     verifier,
		messages:     messages,
		relay:        relay,
		presence:     NewRegistry(),
		room:         NewRoom(store.DefaultRoom),
		log:          logger,
		historyLimit: historyLimit,
	}
}

// Presence exposes the registry for presence inspection.
func (s *Session) Presence() *Registry {
	return s.presence
}

// Connect authenticates the credential and joins the resulting user to
// the room. On success the new member has already been sent the online
// users snapshot and everyone else a user-joined event.
//
// Authorization is checked here and only here: a member whose access is
// revoked mid-session keeps posting until the next reconnect. That
// mirrors the upstream behavior and is accepted as a trade-off rather
// than silently re-checked per event.
func (s *Session) Connect(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, chatError(ErrCodeUnauthenticated, "missing credential")
	}

	user, err := s.verifier.ResolveToken(ctx, token)
	if err != nil {
		s.log.Debug().Err(err).Msg("socket credential rejected")
		return nil, chatError(ErrCodeUnauthenticated, "invalid credential")
	}
	if !user.GroupMember {
		return nil, chatError(ErrCodeForbidden, "not a group member")
	}

	client := NewClient(user.ID, user.Name, user.AvatarURL)

	// Last connection wins: a prior connection of the same user is
	// evicted from the room before the new one becomes visible.
	if prev := s.presence.Put(client); prev != nil {
		s.room.Leave(prev)
		prev.Close()
	}
	s.room.Join(client)

	client.send(&Event{Kind: EventOnlineUsers, Users: s.presence.Snapshot()})
	s.room.BroadcastExcept(client, &Event{Kind: EventUserJoined, User: client.snapshot()})

	s.log.Info().Int64("user_id", user.ID).Str("name", user.Name).Msg("user joined room")
	return client, nil
}

// Disconnect removes the client from presence and the room and tells
// the remaining members. It must run exactly once per connection, also
// on abnormal termination; stale handles already replaced by a newer
// connection only close themselves.
func (s *Session) Disconnect(c *Client) {
	if c == nil {
		return
	}
	if s.presence.Remove(c) {
		s.room.Leave(c)
		s.room.Broadcast(&Event{Kind: EventUserLeft, User: c.snapshot()})
		s.log.Info().Int64("user_id", c.UserID).Msg("user left room")
	}
	c.Close()
}

// SendText persists a trimmed text message and then broadcasts it to
// every member, including the sender. Broadcast strictly follows a
// successful append; a storage fault means nobody sees the message.
func (s *Session) SendText(ctx context.Context, c *Client, body string) (*store.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, chatError(ErrCodeEmptyMessage, "message cannot be empty")
	}

	msg := &store.Message{
		Room:       s.room.Name,
		UserID:     c.UserID,
		UserName:   c.Name,
		UserAvatar: c.Avatar,
		Body:       body,
		Type:       store.MessageTypeText,
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		s.log.Error().Err(err).Int64("user_id", c.UserID).Msg("persist message")
		return nil, chatError(ErrCodeStorageError, "failed to send message")
	}

	s.room.Broadcast(&Event{Kind: EventNewMessage, Message: msg})
	return msg, nil
}

// UploadFile relays the payload to blob storage, persists a file
// message pointing at the stored object, and broadcasts it. The relay
// call can take a long time; no presence or room lock is held across
// it, so other connections keep flowing. A relay failure leaves no
// trace in the store.
func (s *Session) UploadFile(ctx context.Context, c *Client, payload []byte, fileName, fileType string) (*store.Message, error) {
	fileURL, err := s.relay.Store(ctx, payload, fileName, fileType, uploadFolder)
	if err != nil {
		s.log.Error().Err(err).Str("file", fileName).Msg("blob relay failed")
		return nil, chatError(ErrCodeUploadFailed, "file upload failed")
	}

	msg := &store.Message{
		Room:       s.room.Name,
		UserID:     c.UserID,
		UserName:   c.Name,
		UserAvatar: c.Avatar,
		Body:       fileName,
		Type:       store.MessageTypeFile,
		File: &store.FileData{
			FileName: fileName,
			FileURL:  fileURL,
			FileType: fileType,
		},
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		s.log.Error().Err(err).Int64("user_id", c.UserID).Msg("persist file message")
		return nil, chatError(ErrCodeStorageError, "failed to send file")
	}

	s.room.Broadcast(&Event{Kind: EventNewMessage, Message: msg})
	return msg, nil
}

// DeleteMessage hard-deletes a message owned by the caller and
// broadcasts the deletion to the whole room.
func (s *Session) DeleteMessage(ctx context.Context, c *Client, messageID int64) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chatError(ErrCodeNotFound, "message not found")
		}
		return chatError(ErrCodeStorageError, "failed to delete message")
	}
	if msg.UserID != c.UserID {
		return chatError(ErrCodeForbidden, "you can only delete your own messages")
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chatError(ErrCodeNotFound, "message not found")
		}
		return chatError(ErrCodeStorageError, "failed to delete message")
	}

	s.room.Broadcast(&Event{Kind: EventMessageDeleted, MessageID: messageID})
	return nil
}

// History returns the most recent messages, oldest first, capped at the
// configured limit. The REST layer serves it for initial page loads.
func (s *Session) History(ctx context.Context) ([]*store.Message, error) {
	msgs, err := s.messages.ListRecentMessages(ctx, s.room.Name, s.historyLimit)
	if err != nil {
		return nil, chatError(ErrCodeStorageError, "failed to fetch messages")
	}
	return msgs, nil
}
