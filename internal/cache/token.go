package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nichegen/nichegen/internal/auth"
)

// tokenKeyPrefix is the Redis key prefix for API token entries.
// Tokens are stored under their SHA256 hash, never in plaintext.
const tokenKeyPrefix = "token:"

// ErrTokenNotFound is returned when a token does not resolve to a user.
// Expired and revoked tokens are indistinguishable from unknown ones.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore issues, resolves, and revokes opaque API tokens.
// Entries survive process restarts and expire after a TTL, bounding memory.
type TokenStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewTokenStore creates a TokenStore on top of the Redis cache.
func NewTokenStore(cache *Cache, ttl time.Duration) *TokenStore {
	return &TokenStore{cache: cache, ttl: ttl}
}

// Issue generates a new token for the user and stores its mapping.
// Returns the plaintext token; it is never stored and cannot be recovered.
func (s *TokenStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := auth.NewToken()
	if err != nil {
		return "", err
	}

	key := tokenKeyPrefix + auth.QuickHash(token)
	if err := s.cache.client.Set(ctx, key, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return token, nil
}

// Resolve returns the user ID a token maps to, or ErrTokenNotFound.
func (s *TokenStore) Resolve(ctx context.Context, token string) (string, error) {
	key := tokenKeyPrefix + auth.QuickHash(token)

	userID, err := s.cache.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}

	return userID, nil
}

// Revoke deletes a token mapping. Revoking an unknown token is not an error;
// logout is idempotent.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	key := tokenKeyPrefix + auth.QuickHash(token)

	if err := s.cache.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}
