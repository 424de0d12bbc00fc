package chat

import "github.com/gatechat/gatechat-server/internal/store"

// EventKind is a notification the session layer emits to clients.
type EventKind int

const (
	// EventOnlineUsers delivers the presence snapshot to a client upon joining.
	EventOnlineUsers EventKind = iota
	// EventUserJoined notifies members that a user joined the room.
	EventUserJoined
	// EventUserLeft notifies members that a user left the room.
	EventUserLeft
	// EventNewMessage notifies members about a persisted chat message.
	EventNewMessage
	// EventMessageDeleted notifies members that a message was removed.
	EventMessageDeleted
)

// Event is pushed to clients to describe what happened in the room.
type Event struct {
	Kind      EventKind
	User      PresenceEntry   // subject of join/leave events
	Users     []PresenceEntry // for EventOnlineUsers
	Message   *store.Message  // for EventNewMessage
	MessageID int64           // for EventMessageDeleted
}
