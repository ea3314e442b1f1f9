package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// claimTTL bounds how long a crashed request can hold its key.
	claimTTL = time.Minute
	inFlight = "in-flight"
)

// releaseScript deletes the key only while it still holds the in-flight
// marker, so a late Release cannot drop a completed result.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore remembers which license request an Idempotency-Key
// produced. Key format: idem:license:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl uses 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. Exactly one concurrent caller gets
// claimed == true.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	claimed, err := s.client.SetNX(ctx, s.key(key), inFlight, claimTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if claimed {
		return "", true, nil
	}

	ref, err := s.client.Get(ctx, s.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// the other claim expired between the two calls; report it as busy
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("idempotency reserve: %w", err)
	case ref == inFlight:
		return "", false, nil
	}
	return ref, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, ref string) error {
	if err := s.client.Set(ctx, s.key(key), ref, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(key)}, inFlight).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return "idem:license:" + key
}
