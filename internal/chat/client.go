package chat

import "sync"

// Client is a live connection as seen by the session layer. One Client
// exists per WebSocket connection; its Events channel is drained by the
// connection's write loop.
type Client struct {
	UserID int64
	Name   string
	Avatar string
	Events chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client handle for an authenticated user.
func NewClient(userID int64, name, avatar string) *Client {
	return &Client{
		UserID: userID,
		Name:   name,
		Avatar: avatar,
		Events: make(chan *Event, 32),
		done:   make(chan struct{}),
	}
}

// send enqueues an event without blocking. Events to a slow or already
// closed consumer are dropped; the history endpoint is the catch-up path.
func (c *Client) send(ev *Event) {
	select {
	case <-c.done:
	case c.Events <- ev:
	default:
	}
}

// Close marks the client dead exactly once. Safe to call repeatedly and
// concurrently with in-flight sends; the Events channel itself is never
// closed so late broadcasts cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed when the client has been disconnected or replaced by a
// newer connection of the same user. The write loop must exit on it.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// snapshot returns the client's presence entry.
func (c *Client) snapshot() PresenceEntry {
	return PresenceEntry{UserID: c.UserID, Name: c.Name, Avatar: c.Avatar}
}
