// Package refresh defines the capability surface the engine needs from
// the external refresh-token store (set-with-expiry and atomic
// get-and-delete) and provides the Redis implementation.
//
// The store is the only shared mutable state in the system. Atomicity of
// GetDel is delegated to Redis (GETDEL is a single command), so under
// concurrent redemption of the same identifier exactly one caller
// observes a hit. The engine performs no locking of its own around store
// calls.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when the identifier is absent: never
	// issued, already consumed, or expired out by TTL. The three cases
	// are deliberately indistinguishable.
	ErrNotFound = errors.New("refresh identifier not found")

	// ErrUnavailable is returned on transport failure or timeout to the
	// store. Retryable by the caller; distinct from ErrNotFound so an
	// outage is never mistaken for a consumed token.
	ErrUnavailable = errors.New("refresh store unavailable")
)

// Store is the TTL key-value capability consumed by the engine. Keys are
// refresh-token identifiers, values are user ids.
type Store interface {
	// SetWithTTL records identifier -> userID, expiring after ttl.
	SetWithTTL(ctx context.Context, identifier, userID string, ttl time.Duration) error

	// GetDel atomically reads and removes identifier, returning the bound
	// user id. A miss fails with ErrNotFound.
	GetDel(ctx context.Context, identifier string) (string, error)
}

// RedisStore implements Store on a Redis client using SETEX and GETDEL.
// Every call is bounded by the configured timeout since it crosses a
// network boundary.
type RedisStore struct {
	redis   redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a RedisStore. prefix namespaces the keys;
// timeout bounds each round-trip (0 disables the bound).
func NewRedisStore(client redis.UniversalClient, prefix string, timeout time.Duration) *RedisStore {
	return &RedisStore{
		redis:   client,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (s *RedisStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// SetWithTTL implements Store.
func (s *RedisStore) SetWithTTL(ctx context.Context, identifier, userID string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.redis.SetEx(ctx, s.key(identifier), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetDel implements Store.
func (s *RedisStore) GetDel(ctx context.Context, identifier string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	userID, err := s.redis.GetDel(ctx, s.key(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return userID, nil
}
