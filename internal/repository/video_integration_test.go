//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/testutil"
)

func TestIntegrationVideoRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	video := testutil.NewTestVideo(t, testutil.UniqueID("create"))
	if err := repo.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	retrieved, err := repo.GetVideoByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideoByID failed: %v", err)
	}

	if retrieved.Title != video.Title {
		t.Errorf("Title mismatch: got %q, want %q", retrieved.Title, video.Title)
	}
	if retrieved.Visibility != model.VisibilityPublic {
		t.Errorf("Visibility mismatch: got %q", retrieved.Visibility)
	}
	if retrieved.Views != 0 || retrieved.Likes != 0 {
		t.Errorf("New video counters should be zero, got %d/%d", retrieved.Views, retrieved.Likes)
	}
}

func TestIntegrationVideoRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	_, err := repo.GetVideoByID(ctx, "nonexistent-id")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("Expected ErrVideoNotFound, got: %v", err)
	}
}

func TestIntegrationVideoRepository_IncrementViews(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	video := testutil.NewTestVideo(t, testutil.UniqueID("views"))
	if err := repo.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		updated, err := repo.IncrementViews(ctx, video.ID)
		if err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
		if updated.Views != want {
			t.Errorf("Views after increment %d: got %d", want, updated.Views)
		}
	}
}

func TestIntegrationVideoRepository_IncrementLikes_NeverNegative(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	video := testutil.NewTestVideo(t, testutil.UniqueID("likes"))
	if err := repo.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	likes, err := repo.IncrementLikes(ctx, video.ID, -1)
	if err != nil {
		t.Fatalf("IncrementLikes failed: %v", err)
	}
	if likes != 0 {
		t.Errorf("Likes should be clamped at zero, got %d", likes)
	}

	likes, err = repo.IncrementLikes(ctx, video.ID, 1)
	if err != nil {
		t.Fatalf("IncrementLikes failed: %v", err)
	}
	if likes != 1 {
		t.Errorf("Likes after increment: got %d, want 1", likes)
	}
}

func TestIntegrationVideoRepository_MarkVideoPrivate_Once(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	video := testutil.NewTestVideo(t, testutil.UniqueID("private"))
	if err := repo.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	changed, err := repo.MarkVideoPrivate(ctx, video.ID)
	if err != nil {
		t.Fatalf("MarkVideoPrivate failed: %v", err)
	}
	if !changed {
		t.Error("First transition should report changed")
	}

	// Second call is a no-op: the transition fires exactly once.
	changed, err = repo.MarkVideoPrivate(ctx, video.ID)
	if err != nil {
		t.Fatalf("MarkVideoPrivate (repeat) failed: %v", err)
	}
	if changed {
		t.Error("Repeat transition should report unchanged")
	}

	retrieved, err := repo.GetVideoByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideoByID failed: %v", err)
	}
	if retrieved.Visibility != model.VisibilityPrivate {
		t.Errorf("Visibility = %q, want private", retrieved.Visibility)
	}
}

func TestIntegrationVideoRepository_ListPublicVideos(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	public := testutil.NewTestVideo(t, testutil.UniqueID("public"))
	private := testutil.NewTestVideo(t, testutil.UniqueID("hidden"))
	private.Visibility = model.VisibilityPrivate

	if err := repo.CreateVideo(ctx, public); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if err := repo.CreateVideo(ctx, private); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	videos, err := repo.ListPublicVideos(ctx)
	if err != nil {
		t.Fatalf("ListPublicVideos failed: %v", err)
	}

	for _, v := range videos {
		if v.ID == private.ID {
			t.Error("Private video leaked into the public snapshot")
		}
	}
}

func TestIntegrationVideoRepository_PrivatizeExpired(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	now := time.Now().UTC()
	expired := testutil.NewTestVideoWithLimits(t, testutil.UniqueID("expired"), 0, now.Add(-time.Hour))
	fresh := testutil.NewTestVideoWithLimits(t, testutil.UniqueID("fresh"), 0, now.Add(time.Hour))

	if err := repo.CreateVideo(ctx, expired); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if err := repo.CreateVideo(ctx, fresh); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	ids, err := repo.PrivatizeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PrivatizeExpired failed: %v", err)
	}

	if !containsID(ids, expired.ID) {
		t.Errorf("Expired video %s should have transitioned, got %v", expired.ID, ids)
	}
	if containsID(ids, fresh.ID) {
		t.Errorf("Fresh video %s should not have transitioned", fresh.ID)
	}
}

func TestIntegrationVideoRepository_PrivatizeViewLimited_ZeroLimitIgnored(t *testing.T) {
	ctx, repo := newVideoTestEnv(t)

	limited := testutil.NewTestVideo(t, testutil.UniqueID("limited"))
	limit := int64(2)
	limited.ViewLimit = &limit

	unlimited := testutil.NewTestVideo(t, testutil.UniqueID("unlimited"))
	zero := int64(0)
	unlimited.ViewLimit = &zero

	if err := repo.CreateVideo(ctx, limited); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if err := repo.CreateVideo(ctx, unlimited); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.IncrementViews(ctx, limited.ID); err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
		if _, err := repo.IncrementViews(ctx, unlimited.ID); err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
	}

	ids, err := repo.PrivatizeViewLimited(ctx)
	if err != nil {
		t.Fatalf("PrivatizeViewLimited failed: %v", err)
	}

	if !containsID(ids, limited.ID) {
		t.Errorf("Limited video should have transitioned, got %v", ids)
	}
	if containsID(ids, unlimited.ID) {
		t.Error("Zero view limit means no limit and must never transition")
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newVideoTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetVideosSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset videos schema: %v", err)
	}

	return ctx, repo
}
