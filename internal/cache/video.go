package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/model"
)

// Cache key prefixes and TTLs.
const (
	videoKeyPrefix    = "video:"
	shareKeyPrefix    = "share:"
	negCacheKeySuffix = ":neg"

	// DefaultVideoTTL is the TTL for cached video data. Counters go a
	// little stale between writes; every mutation rewrites the entry.
	DefaultVideoTTL = 5 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetVideo retrieves a video from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetVideo(ctx context.Context, id string) (*model.CachedVideo, error) {
	key := videoKeyPrefix + id

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedVideo{
		OwnerID:          result["owner_id"],
		Title:            result["title"],
		Category:         result["category"],
		Visibility:       result["visibility"],
		Views:            result["views"],
		Likes:            result["likes"],
		ViewLimit:        result["view_limit"],
		AutoPrivateAfter: result["auto_private_after"],
		UploadedAt:       result["uploaded_at"],
		UpdatedAt:        result["updated_at"],
	}

	return cached, nil
}

// SetVideo stores a video in cache. The TTL is clamped to the video's
// auto-private deadline, measured from the caller-supplied now, so a
// cached public entry can never outlive the moment the video is due to
// go private.
func (c *Cache) SetVideo(ctx context.Context, video *model.Video, now time.Time) error {
	key := videoKeyPrefix + video.ID
	cached := video.ToCachedVideo()

	ttl := DefaultVideoTTL
	if video.AutoPrivateAfter != nil {
		privateIn := video.AutoPrivateAfter.Sub(now)
		if privateIn <= 0 {
			c.client.Del(ctx, key, key+negCacheKeySuffix)
			return nil
		}
		if privateIn < ttl {
			ttl = privateIn
		}
	}

	fields := map[string]any{
		"owner_id":    cached.OwnerID,
		"title":       cached.Title,
		"category":    cached.Category,
		"visibility":  cached.Visibility,
		"views":       cached.Views,
		"likes":       cached.Likes,
		"uploaded_at": cached.UploadedAt,
		"updated_at":  cached.UpdatedAt,
	}

	// Only set optional fields if they have values
	if cached.ViewLimit != "" {
		fields["view_limit"] = cached.ViewLimit
	}
	if cached.AutoPrivateAfter != "" {
		fields["auto_private_after"] = cached.AutoPrivateAfter
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache video: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteVideo removes a video from cache. Called after every counter or
// visibility mutation so reads never serve a pre-transition entry.
func (c *Cache) DeleteVideo(ctx context.Context, id string) error {
	key := videoKeyPrefix + id

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete video from cache: %w", err)
	}

	return nil
}

// IsVideoNegativelyCached checks if a video ID is in negative cache.
func (c *Cache) IsVideoNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := videoKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetVideoNegativeCache marks a video ID as not found.
func (c *Cache) SetVideoNegativeCache(ctx context.Context, id string) error {
	key := videoKeyPrefix + id + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}

// IsShareNegativelyCached checks if a share token is known-bad. Tokens
// are high-entropy so a miss here is almost always a probe or a typo;
// the negative cache keeps those off the database.
func (c *Cache) IsShareNegativelyCached(ctx context.Context, token string) (bool, error) {
	key := shareKeyPrefix + token + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check share negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetShareNegativeCache marks a share token as not found.
func (c *Cache) SetShareNegativeCache(ctx context.Context, token string) error {
	key := shareKeyPrefix + token + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set share negative cache: %w", err)
	}

	return nil
}
