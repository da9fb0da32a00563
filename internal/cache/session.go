package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nichegen/nichegen/internal/auth"
)

// sessionKeyPrefix is the Redis key prefix for browser session entries.
const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when a session ID does not resolve to a user.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds server-side browser sessions keyed by opaque session ID.
// The signed cookie carries only the ID; the user mapping lives here.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore creates a SessionStore on top of the Redis cache.
func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

// Create starts a new session for the user and returns its ID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	id, err := auth.NewSessionID()
	if err != nil {
		return "", err
	}

	if err := s.cache.client.Set(ctx, sessionKeyPrefix+id, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return id, nil
}

// Get returns the user ID for a session, refreshing its TTL on hit so active
// browser sessions slide rather than expire mid-use.
func (s *SessionStore) Get(ctx context.Context, id string) (string, error) {
	key := sessionKeyPrefix + id

	userID, err := s.cache.client.GetEx(ctx, key, s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}

	return userID, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
