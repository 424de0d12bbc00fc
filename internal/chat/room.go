package chat

import "sync"

// Room groups clients subscribed to the same broadcast channel. Only a
// single instance exists today, but the session layer treats it as a
// value so more rooms do not require restructuring.
type Room struct {
	Name string

	mu      sync.RWMutex
	members map[*Client]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[*Client]struct{}),
	}
}

// Join inserts a client into the room.
func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[c] = struct{}{}
}

// Leave deletes a client from the room. Removing an absent client is a
// no-op.
func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, c)
}

// Broadcast sends an event to all members, including the sender.
func (r *Room) Broadcast(ev *Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for member := range r.members {
		member.send(ev)
	}
}

// BroadcastExcept sends an event to all members other than skip.
func (r *Room) BroadcastExcept(skip *Client, ev *Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for member := range r.members {
		if member == skip {
			continue
		}
		member.send(ev)
	}
}

// Size returns the number of joined clients.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
