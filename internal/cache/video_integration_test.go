//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/testutil"
)

func TestSetVideo_ClampsTTLToAutoPrivateDeadline(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	now := time.Now().UTC()
	deadline := now.Add(90 * time.Second)
	video := testutil.NewTestVideo(t, testutil.UniqueID("clamp"))
	video.AutoPrivateAfter = &deadline

	if err := c.SetVideo(ctx, video, now); err != nil {
		t.Fatalf("SetVideo failed: %v", err)
	}

	ttl, err := c.client.TTL(ctx, videoKeyPrefix+video.ID).Result()
	if err != nil {
		t.Fatalf("read ttl: %v", err)
	}
	if ttl <= 0 || ttl > 90*time.Second {
		t.Errorf("ttl = %v, want clamped to at most 90s", ttl)
	}
}

func TestSetVideo_SkipsCachingPastDeadline(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	deadline := time.Now().UTC().Add(time.Hour)
	video := testutil.NewTestVideo(t, testutil.UniqueID("past"))
	video.AutoPrivateAfter = &deadline

	// As far as the caller's clock is concerned the deadline has elapsed,
	// so nothing may be cached regardless of the wall clock.
	afterDeadline := deadline.Add(time.Second)
	if err := c.SetVideo(ctx, video, afterDeadline); err != nil {
		t.Fatalf("SetVideo failed: %v", err)
	}

	if _, err := c.GetVideo(ctx, video.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected cache miss after deadline, got %v", err)
	}
}

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}
