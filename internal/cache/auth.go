package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

const (
	authCachePrefix = "auth:ctx:"

	// Revoked keys keep working for at most this long.
	authCacheTTL = 5 * time.Minute
)

// CachedAuthContext is the JSON shape of an auth context in Redis.
type CachedAuthContext struct {
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
	ServiceID     string   `json:"service_id"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

// GetAuthContext looks up a cached auth context by its derived cache
// key. A miss or an unreadable entry returns (nil, nil); the caller
// falls back to the database.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authCachePrefix+cacheKey).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
		ServiceID:     cached.ServiceID,
		Scopes:        cached.Scopes,
		RateLimitTier: cached.RateLimitTier,
	}, nil
}

// SetAuthContext caches a verified auth context so later requests skip
// the argon2 verification.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, ac *model.AuthContext) error {
	data, err := json.Marshal(CachedAuthContext{
		KeyID:         ac.KeyID,
		KeyPrefix:     ac.KeyPrefix,
		ServiceID:     ac.ServiceID,
		Scopes:        ac.Scopes,
		RateLimitTier: ac.RateLimitTier,
	})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, authCachePrefix+cacheKey, data, authCacheTTL).Err()
}

// DeleteAuthContext evicts a cached auth context on key revocation.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, authCachePrefix+cacheKey).Err()
}
