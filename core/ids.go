// ABOUTME: ID generation for kernel entities.
// ABOUTME: Persisted entities use ULIDs for monotonic, sortable IDs; ephemeral tokens use UUIDs.
package core

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var entropy = ulid.Monotonic(rand.Reader, 0)

// NewULID generates a new monotonic ULID for a persisted entity (swarm, agent,
// task, session, event).
func NewULID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// NewRequestID generates an ephemeral, non-persisted identifier for request
// correlation and MCP invocation idempotency tokens, where sort order doesn't
// matter.
func NewRequestID() string {
	return uuid.NewString()
}
