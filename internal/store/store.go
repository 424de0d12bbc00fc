package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultRoom is the single logical room every member joins.
// Messages carry an explicit room column so more rooms can be added
// without a schema change.
const DefaultRoom = "group-chat"

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	AvatarURL    string
	GroupMember  bool
	CreatedAt    time.Time
}

// MessageType distinguishes message body variants.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeFile MessageType = "file"
)

// FileData is the attachment metadata of a file message.
type FileData struct {
	FileName string
	FileURL  string
	FileType string
}

// Message is a persisted chat message. Author name and avatar are
// captured at send time and never re-joined against the users table.
type Message struct {
	ID         int64
	Room       string
	UserID     int64
	UserName   string
	UserAvatar string
	Body       string
	Type       MessageType
	File       *FileData // nil for text messages
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetGroupMember flips the room-access flag for a user.
	SetGroupMember(ctx context.Context, userID int64, member bool) error

	// SetAvatarURL updates the user's avatar URL.
	SetAvatarURL(ctx context.Context, userID int64, url string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and fills in its store-assigned
	// ID and creation timestamp.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListRecentMessages returns up to limit messages from a room,
	// oldest first. Ties on created_at are broken by insertion order.
	ListRecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)

	// GetMessage retrieves a message by ID. Returns ErrNotFound if absent.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// DeleteMessage removes a message. Returns ErrNotFound if absent.
	DeleteMessage(ctx context.Context, id int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
