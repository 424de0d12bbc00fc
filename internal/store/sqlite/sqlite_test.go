package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/gatechat/gatechat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func appendText(t *testing.T, s *SQLiteStore, userID int64, name, body string) *store.Message {
	t.Helper()

	msg := &store.Message{
		Room:     store.DefaultRoom,
		UserID:   userID,
		UserName: name,
		Body:     body,
		Type:     store.MessageTypeText,
	}
	if err := s.AppendMessage(context.Background(), msg); err != nil {
		t.Fatalf("append message: %v", err)
	}
	return msg
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	msg := appendText(t, s, 1, "alice", "hello")
	if msg.ID == 0 {
		t.Fatal("expected store-assigned ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Fatal("expected store-assigned timestamp")
	}
}

func TestListRecentOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bodies := []string{"one", "two", "three", "four"}
	for _, b := range bodies {
		appendText(t, s, 1, "alice", b)
	}

	messages, err := s.ListRecentMessages(ctx, store.DefaultRoom, 50)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != len(bodies) {
		t.Fatalf("expected %d messages, got %d", len(bodies), len(messages))
	}
	for i, msg := range messages {
		if msg.Body != bodies[i] {
			t.Errorf("position %d: expected %q, got %q", i, bodies[i], msg.Body)
		}
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Errorf("timestamps out of order at position %d", i)
		}
	}
}

func TestListRecentKeepsNewestWhenCapped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, b := range []string{"a", "b", "c", "d", "e"} {
		appendText(t, s, 1, "alice", b)
	}

	messages, err := s.ListRecentMessages(ctx, store.DefaultRoom, 3)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	// The cap drops the oldest rows, not the newest.
	if messages[0].Body != "c" || messages[2].Body != "e" {
		t.Fatalf("unexpected page: %q .. %q", messages[0].Body, messages[2].Body)
	}
}

func TestFileMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{
		Room:     store.DefaultRoom,
		UserID:   2,
		UserName: "bob",
		Body:     "report.pdf",
		Type:     store.MessageTypeFile,
		File: &store.FileData{
			FileName: "report.pdf",
			FileURL:  "https://blobs.example/chat_files/report.pdf",
			FileType: "application/pdf",
		},
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("append message: %v", err)
	}

	got, err := s.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if got.Type != store.MessageTypeFile || got.File == nil {
		t.Fatalf("expected file message, got %+v", got)
	}
	if got.File.FileURL != msg.File.FileURL || got.File.FileType != "application/pdf" {
		t.Fatalf("unexpected file data: %+v", got.File)
	}
}

func TestDeleteMessageTwiceReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := appendText(t, s, 1, "alice", "to be removed")

	if err := s.DeleteMessage(ctx, msg.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.DeleteMessage(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.GetMessage(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.GroupMember {
		t.Fatal("new user must not be a group member")
	}

	if err := s.SetGroupMember(ctx, user.ID, true); err != nil {
		t.Fatalf("set group member: %v", err)
	}
	if err := s.SetAvatarURL(ctx, user.ID, "https://blobs.example/avatars/a.png"); err != nil {
		t.Fatalf("set avatar: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.GroupMember || got.AvatarURL == "" {
		t.Fatalf("unexpected user state: %+v", got)
	}

	if _, err := s.GetUserByID(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}
