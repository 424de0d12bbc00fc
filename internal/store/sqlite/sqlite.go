package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gatechat/gatechat-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar_url    TEXT NOT NULL DEFAULT '',
	group_member  BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room        TEXT NOT NULL,
	user_id     INTEGER NOT NULL,
	user_name   TEXT NOT NULL,
	user_avatar TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT 'text',
	file_name   TEXT,
	file_url    TEXT,
	file_type   TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_room_created
	ON messages (room, created_at, id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection. This also
	// serializes concurrent appends, which is what keeps the append
	// order stable across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, name, email, password_hash, avatar_url, group_member, created_at
		FROM users
		WHERE ` + where
	var user store.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.GroupMember,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// SetGroupMember flips the room-access flag for a user.
func (s *SQLiteStore) SetGroupMember(ctx context.Context, userID int64, member bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET group_member = ? WHERE id = ?`, member, userID)
	if err != nil {
		return fmt.Errorf("update group_member: %w", err)
	}
	return checkAffected(result)
}

// SetAvatarURL updates the user's avatar URL.
func (s *SQLiteStore) SetAvatarURL(ctx context.Context, userID int64, url string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET avatar_url = ? WHERE id = ?`, url, userID)
	if err != nil {
		return fmt.Errorf("update avatar_url: %w", err)
	}
	return checkAffected(result)
}

// ==== MessageStore implementation ====

// AppendMessage persists a message and fills in its store-assigned
// ID and creation timestamp.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (room, user_id, user_name, user_avatar, body, type, file_name, file_url, file_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var fileName, fileURL, fileType *string
	if msg.File != nil {
		fileName, fileURL, fileType = &msg.File.FileName, &msg.File.FileURL, &msg.File.FileType
	}

	result, err := s.db.ExecContext(ctx, query,
		msg.Room, msg.UserID, msg.UserName, msg.UserAvatar,
		msg.Body, msg.Type, fileName, fileURL, fileType,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	saved, err := s.GetMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("reload message: %w", err)
	}
	*msg = *saved
	return nil
}

const messageColumns = `id, room, user_id, user_name, user_avatar, body, type, file_name, file_url, file_type, created_at`

// ListRecentMessages returns up to limit messages from a room, oldest first.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	// Fetch the newest page, then reverse to chronological order so the
	// cap keeps the most recent messages.
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE id = ?
	`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

// DeleteMessage removes a message. Returns store.ErrNotFound if absent.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg                       store.Message
		fileName, fileURL, fileType sql.NullString
	)
	err := row.Scan(
		&msg.ID,
		&msg.Room,
		&msg.UserID,
		&msg.UserName,
		&msg.UserAvatar,
		&msg.Body,
		&msg.Type,
		&fileName,
		&fileURL,
		&fileType,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}

	if msg.Type == store.MessageTypeFile {
		msg.File = &store.FileData{
			FileName: fileName.String,
			FileURL:  fileURL.String,
			FileType: fileType.String,
		}
	}
	return &msg, nil
}

func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
