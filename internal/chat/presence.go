package chat

import "sync"

// PresenceEntry is the display snapshot of a currently connected user.
type PresenceEntry struct {
	UserID int64
	Name   string
	Avatar string
}

// Registry is the process-wide table of online users. It is the only
// state shared by every connection handler and is guarded by a mutex;
// no handler touches the map directly.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Put registers a client under its user ID and returns the handle it
// replaced, if any. Last connection wins.
func (r *Registry) Put(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[c.UserID]
	r.clients[c.UserID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Remove unregisters the client, but only if it still owns its user's
// entry. A stale handle replaced by a newer connection is left alone,
// and removing an absent entry is a no-op. Reports whether the entry
// was removed.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[c.UserID]; !ok || current != c {
		return false
	}
	delete(r.clients, c.UserID)
	return true
}

// Snapshot returns a consistent point-in-time list of online users.
func (r *Registry) Snapshot() []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]PresenceEntry, 0, len(r.clients))
	for _, c := range r.clients {
		entries = append(entries, c.snapshot())
	}
	return entries
}

// Len returns the number of currently connected users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
