package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/store"
	"github.com/gatechat/gatechat-server/internal/store/sqlite"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func assertNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(50 * time.Millisecond)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}

// fakeVerifier resolves fixed tokens to fixed users.
type fakeVerifier struct {
	users map[string]*store.User
}

func (f *fakeVerifier) ResolveToken(_ context.Context, token string) (*store.User, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return user, nil
}

// fakeRelay records uploads and can be told to fail.
type fakeRelay struct {
	fail    bool
	stored  int
	lastURL string
}

func (f *fakeRelay) Store(_ context.Context, _ []byte, suggestedName, _, folder string) (string, error) {
	if f.fail {
		return "", errors.New("object store unreachable")
	}
	f.stored++
	f.lastURL = "https://blobs.test/" + folder + "/" + suggestedName
	return f.lastURL, nil
}

type sessionFixture struct {
	session  *Session
	messages store.MessageStore
	relay    *fakeRelay
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	verifier := &fakeVerifier{users: map[string]*store.User{
		"token-alice": {ID: 1, Name: "alice", AvatarURL: "https://blobs.test/avatars/alice.png", GroupMember: true},
		"token-bob":   {ID: 2, Name: "bob", GroupMember: true},
		"token-carol": {ID: 3, Name: "carol", GroupMember: false},
	}}

	relay := &fakeRelay{}
	logger := zerolog.Nop()

	return &sessionFixture{
		session:  NewSession(verifier, st, relay, &logger, 50),
		messages: st,
		relay:    relay,
	}
}

func (f *sessionFixture) connect(t *testing.T, token string) *Client {
	t.Helper()

	c, err := f.session.Connect(context.Background(), token)
	if err != nil {
		t.Fatalf("connect %s: %v", token, err)
	}
	return c
}
