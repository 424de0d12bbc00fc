package chat

import (
	"context"
	"testing"

	"github.com/gatechat/gatechat-server/internal/store"
)

func TestConnectRejectsMissingCredential(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.session.Connect(context.Background(), "")
	if CodeOf(err) != ErrCodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if n := f.session.Presence().Len(); n != 0 {
		t.Fatalf("rejected connection must not appear in presence, got %d entries", n)
	}
}

func TestConnectRejectsInvalidCredential(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.session.Connect(context.Background(), "token-forged")
	if CodeOf(err) != ErrCodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestConnectRejectsNonMember(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.session.Connect(context.Background(), "token-carol")
	if CodeOf(err) != ErrCodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if n := f.session.Presence().Len(); n != 0 {
		t.Fatalf("forbidden connection must not appear in presence, got %d entries", n)
	}
}

func TestConnectDeliversSnapshotAndAnnounces(t *testing.T) {
	f := newSessionFixture(t)

	alice := f.connect(t, "token-alice")

	snap := mustEvent(t, alice.Events, EventOnlineUsers)
	if len(snap.Users) != 1 || snap.Users[0].Name != "alice" {
		t.Fatalf("unexpected snapshot for first joiner: %+v", snap.Users)
	}

	bob := f.connect(t, "token-bob")

	// Bob's snapshot includes both; Alice sees bob join but no snapshot.
	snap = mustEvent(t, bob.Events, EventOnlineUsers)
	if len(snap.Users) != 2 {
		t.Fatalf("expected 2 online users, got %+v", snap.Users)
	}
	joined := mustEvent(t, alice.Events, EventUserJoined)
	if joined.User.UserID != bob.UserID || joined.User.Name != "bob" {
		t.Fatalf("unexpected join event: %+v", joined)
	}
	assertNoEvent(t, bob.Events, EventUserJoined)
}

func TestSendTextBroadcastsToEveryoneIncludingSender(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")

	sent, err := f.session.SendText(ctx, alice, "hello")
	if err != nil {
		t.Fatalf("send text: %v", err)
	}
	if sent.ID == 0 || sent.CreatedAt.IsZero() {
		t.Fatalf("expected persisted id and timestamp, got %+v", sent)
	}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		if ev.Message.Body != "hello" || ev.Message.Type != store.MessageTypeText {
			t.Fatalf("unexpected message event: %+v", ev.Message)
		}
		if ev.Message.UserName != "alice" || ev.Message.ID != sent.ID {
			t.Fatalf("unexpected message identity: %+v", ev.Message)
		}

		// Persist happens before broadcast: by the time any receiver
		// observes the event the row is durable.
		if _, err := f.messages.GetMessage(ctx, ev.Message.ID); err != nil {
			t.Fatalf("broadcast observed before durable persist: %v", err)
		}
	}
}

func TestLateJoinerGetsHistoryOnlyViaFetch(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	if _, err := f.session.SendText(ctx, alice, "hello"); err != nil {
		t.Fatalf("send text: %v", err)
	}

	bob := f.connect(t, "token-bob")

	snap := mustEvent(t, bob.Events, EventOnlineUsers)
	found := false
	for _, u := range snap.Users {
		if u.UserID == alice.UserID {
			found = true
		}
	}
	if !found {
		t.Fatalf("snapshot must contain alice: %+v", snap.Users)
	}
	// The earlier broadcast is not replayed to late joiners.
	assertNoEvent(t, bob.Events, EventNewMessage)

	history, err := f.session.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Body != "hello" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSendTextRejectsBlankBody(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")

	for _, body := range []string{"", "   ", "\n\t "} {
		if _, err := f.session.SendText(ctx, alice, body); CodeOf(err) != ErrCodeEmptyMessage {
			t.Fatalf("body %q: expected empty_message, got %v", body, err)
		}
	}

	assertNoEvent(t, bob.Events, EventNewMessage)
	history, err := f.session.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("no row should be persisted, got %+v", history)
	}
}

func TestUploadFilePersistsAndBroadcasts(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")

	sent, err := f.session.UploadFile(ctx, alice, []byte("%PDF-1.4"), "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("upload file: %v", err)
	}
	if sent.File == nil || sent.File.FileURL != f.relay.lastURL {
		t.Fatalf("unexpected file metadata: %+v", sent.File)
	}

	ev := mustEvent(t, bob.Events, EventNewMessage)
	if ev.Message.Type != store.MessageTypeFile || ev.Message.File.FileName != "report.pdf" {
		t.Fatalf("unexpected file event: %+v", ev.Message)
	}
}

func TestUploadFailureLeavesNoMessage(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")
	f.relay.fail = true

	_, err := f.session.UploadFile(ctx, alice, []byte("data"), "broken.png", "image/png")
	if CodeOf(err) != ErrCodeUploadFailed {
		t.Fatalf("expected upload_failed, got %v", err)
	}

	assertNoEvent(t, bob.Events, EventNewMessage)
	history, err := f.session.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("failed upload must not persist a message, got %+v", history)
	}
}

func TestDeleteMessageAuthorOnly(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")

	sent, err := f.session.SendText(ctx, alice, "delete me")
	if err != nil {
		t.Fatalf("send text: %v", err)
	}

	if err := f.session.DeleteMessage(ctx, bob, sent.ID); CodeOf(err) != ErrCodeForbidden {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}

	if err := f.session.DeleteMessage(ctx, alice, sent.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	ev := mustEvent(t, bob.Events, EventMessageDeleted)
	if ev.MessageID != sent.ID {
		t.Fatalf("unexpected deleted id: %d", ev.MessageID)
	}

	// Deleting twice yields not_found, as does a never-existing id.
	if err := f.session.DeleteMessage(ctx, alice, sent.ID); CodeOf(err) != ErrCodeNotFound {
		t.Fatalf("expected not_found on second delete, got %v", err)
	}
	if err := f.session.DeleteMessage(ctx, alice, 424242); CodeOf(err) != ErrCodeNotFound {
		t.Fatalf("expected not_found for unknown id, got %v", err)
	}
}

func TestDisconnectBroadcastsSingleUserLeft(t *testing.T) {
	f := newSessionFixture(t)

	alice := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")

	f.session.Disconnect(alice)
	// Cleanup is idempotent even when invoked again on teardown paths.
	f.session.Disconnect(alice)

	left := mustEvent(t, bob.Events, EventUserLeft)
	if left.User.UserID != alice.UserID || left.User.Name != "alice" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
	assertNoEvent(t, bob.Events, EventUserLeft)

	snap := f.session.Presence().Snapshot()
	if len(snap) != 1 || snap[0].UserID != bob.UserID {
		t.Fatalf("alice must be gone from presence: %+v", snap)
	}
}

func TestReconnectReplacesPriorConnection(t *testing.T) {
	f := newSessionFixture(t)

	first := f.connect(t, "token-alice")
	bob := f.connect(t, "token-bob")
	second := f.connect(t, "token-alice")

	if n := f.session.Presence().Len(); n != 2 {
		t.Fatalf("expected 2 presence entries after reconnect, got %d", n)
	}

	select {
	case <-first.Done():
	default:
		t.Fatal("replaced connection must be told to shut down")
	}

	// The stale handle's guaranteed cleanup must not evict the new
	// connection or announce a departure.
	f.session.Disconnect(first)
	if n := f.session.Presence().Len(); n != 2 {
		t.Fatalf("stale cleanup removed a live entry, %d left", n)
	}
	assertNoEvent(t, bob.Events, EventUserLeft)

	// The replacement handle still receives broadcasts.
	if _, err := f.session.SendText(context.Background(), bob, "still there?"); err != nil {
		t.Fatalf("send text: %v", err)
	}
	mustEvent(t, second.Events, EventNewMessage)
}
