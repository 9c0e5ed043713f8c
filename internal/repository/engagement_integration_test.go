//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/testutil"
)

func TestIntegrationEngagement_UpsertViewEvent_Dedupes(t *testing.T) {
	ctx, repo := newEngagementTestEnv(t)

	event := &model.ViewEvent{
		ID:       testutil.UniqueID("view"),
		VideoID:  "video-1",
		ViewerID: "viewer-1",
		ViewedAt: time.Now().UTC(),
	}

	inserted, err := repo.UpsertViewEvent(ctx, event)
	if err != nil {
		t.Fatalf("UpsertViewEvent failed: %v", err)
	}
	if !inserted {
		t.Error("First view should insert a new row")
	}

	// Same pair again: row count stays at one, viewed_at refreshes.
	repeat := &model.ViewEvent{
		ID:       testutil.UniqueID("view"),
		VideoID:  "video-1",
		ViewerID: "viewer-1",
		ViewedAt: time.Now().UTC().Add(time.Minute),
	}
	inserted, err = repo.UpsertViewEvent(ctx, repeat)
	if err != nil {
		t.Fatalf("UpsertViewEvent (repeat) failed: %v", err)
	}
	if inserted {
		t.Error("Repeat view should not insert a new row")
	}

	ids, err := repo.ListViewedVideoIDs(ctx, "viewer-1")
	if err != nil {
		t.Fatalf("ListViewedVideoIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "video-1" {
		t.Errorf("Viewed IDs = %v, want [video-1]", ids)
	}
}

func TestIntegrationEngagement_LikeEventInsertDelete(t *testing.T) {
	ctx, repo := newEngagementTestEnv(t)

	event := &model.LikeEvent{
		ID:        testutil.UniqueID("like"),
		VideoID:   "video-1",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
	}

	inserted, err := repo.InsertLikeEvent(ctx, event)
	if err != nil {
		t.Fatalf("InsertLikeEvent failed: %v", err)
	}
	if !inserted {
		t.Error("First like should insert")
	}

	dup := &model.LikeEvent{
		ID:        testutil.UniqueID("like"),
		VideoID:   "video-1",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
	}
	inserted, err = repo.InsertLikeEvent(ctx, dup)
	if err != nil {
		t.Fatalf("InsertLikeEvent (dup) failed: %v", err)
	}
	if inserted {
		t.Error("Duplicate like must hit the unique constraint and insert nothing")
	}

	liked, err := repo.HasLiked(ctx, "video-1", "user-1")
	if err != nil {
		t.Fatalf("HasLiked failed: %v", err)
	}
	if !liked {
		t.Error("HasLiked should be true after insert")
	}

	deleted, err := repo.DeleteLikeEvent(ctx, "video-1", "user-1")
	if err != nil {
		t.Fatalf("DeleteLikeEvent failed: %v", err)
	}
	if !deleted {
		t.Error("Delete should remove the like row")
	}

	deleted, err = repo.DeleteLikeEvent(ctx, "video-1", "user-1")
	if err != nil {
		t.Fatalf("DeleteLikeEvent (repeat) failed: %v", err)
	}
	if deleted {
		t.Error("Deleting an absent like should report false")
	}
}

func TestIntegrationEngagement_CountRecentViews(t *testing.T) {
	ctx, repo := newEngagementTestEnv(t)

	now := time.Now().UTC()
	events := []*model.ViewEvent{
		{ID: testutil.UniqueID("v"), VideoID: "hot", ViewerID: "a", ViewedAt: now.Add(-time.Hour)},
		{ID: testutil.UniqueID("v"), VideoID: "hot", ViewerID: "b", ViewedAt: now.Add(-2 * time.Hour)},
		{ID: testutil.UniqueID("v"), VideoID: "stale", ViewerID: "a", ViewedAt: now.Add(-10 * 24 * time.Hour)},
	}
	for _, e := range events {
		if _, err := repo.UpsertViewEvent(ctx, e); err != nil {
			t.Fatalf("UpsertViewEvent failed: %v", err)
		}
	}

	counts, err := repo.CountRecentViews(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("CountRecentViews failed: %v", err)
	}

	if counts["hot"] != 2 {
		t.Errorf("hot count = %d, want 2", counts["hot"])
	}
	if _, ok := counts["stale"]; ok {
		t.Error("Views outside the window must not be counted")
	}
}

func newEngagementTestEnv(t *testing.T) (context.Context, *Repository) {
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

	if err := testutil.ResetEngagementSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset engagement schema: %v", err)
	}

	return ctx, repo
}
