// Package idx generates the portal's record and session identifiers.
//
// IDs are ULIDs: 26 Crockford base32 characters, lexicographically sortable by
// creation time, so "newest first" is a reverse string sort.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ID stamped with the current UTC time.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt returns a fresh ID stamped with t. IDs produced within the same
// millisecond stay strictly increasing.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
