// Package blob relays uploaded payloads to durable object storage and
// hands back retrievable URLs.
package blob

import "context"

// Relay stores raw bytes and returns a durable URL for them. Calls may
// take arbitrarily long; callers must not hold shared locks across a
// Store call.
type Relay interface {
	// Store persists data under a name derived from suggestedName inside
	// the given folder and returns the URL it is retrievable at.
	Store(ctx context.Context, data []byte, suggestedName, contentType, folder string) (string, error)
}
