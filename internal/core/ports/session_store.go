package ports

import (
	"context"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
)

// SessionStore keeps the serialized identity bound to a session. It is the
// only identity state that outlives a request.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, user *domain.User, ttl time.Duration) error
	// Load returns domain.ErrSessionNotFound for unknown or expired sessions.
	Load(ctx context.Context, sessionID string) (*domain.User, error)
	// Clear is a no-op for unknown sessions.
	Clear(ctx context.Context, sessionID string) error
}

// IdempotencyStore remembers which result a client-supplied idempotency key
// produced. Callers scope keys themselves; the store treats them as opaque.
type IdempotencyStore interface {
	// Reserve atomically claims key. When the key is already taken claimed is
	// false and ref is the stored result, or "" while the first request is
	// still in flight.
	Reserve(ctx context.Context, key string) (ref string, claimed bool, err error)
	// Complete stores ref for a key claimed by Reserve.
	Complete(ctx context.Context, key, ref string) error
	// Release drops a claim whose request failed, so a retry can run.
	Release(ctx context.Context, key string) error
}
