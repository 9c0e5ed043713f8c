//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/clipstream/clipstream/internal/testutil"
)

func TestIntegrationShareRepository_RedeemIncrementsExactlyOnce(t *testing.T) {
	ctx, repo := newShareTestEnv(t)

	token := testutil.UniqueID("token")
	share := testutil.NewTestShareLink(t, token, "video-1")
	if err := repo.CreateShareLink(ctx, share); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		videoID, err := repo.RedeemShareToken(ctx, token)
		if err != nil {
			t.Fatalf("RedeemShareToken failed: %v", err)
		}
		if videoID != "video-1" {
			t.Errorf("Redeemed video = %q, want video-1", videoID)
		}

		retrieved, err := repo.GetShareLinkByToken(ctx, token)
		if err != nil {
			t.Fatalf("GetShareLinkByToken failed: %v", err)
		}
		if retrieved.AccessCount != want {
			t.Errorf("AccessCount after redeem %d: got %d", want, retrieved.AccessCount)
		}
	}
}

func TestIntegrationShareRepository_DuplicateToken(t *testing.T) {
	ctx, repo := newShareTestEnv(t)

	token := testutil.UniqueID("token")
	first := testutil.NewTestShareLink(t, token, "video-1")
	second := testutil.NewTestShareLink(t, token, "video-2")

	if err := repo.CreateShareLink(ctx, first); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	err := repo.CreateShareLink(ctx, second)
	if !errors.Is(err, ErrTokenExists) {
		t.Errorf("Expected ErrTokenExists, got: %v", err)
	}
}

func TestIntegrationShareRepository_InactiveTokenIsNotFound(t *testing.T) {
	ctx, repo := newShareTestEnv(t)

	token := testutil.UniqueID("token")
	share := testutil.NewTestShareLink(t, token, "video-1")
	if err := repo.CreateShareLink(ctx, share); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	if _, err := repo.RedeemShareToken(ctx, token); err != nil {
		t.Fatalf("RedeemShareToken failed: %v", err)
	}

	if err := repo.DeactivateShareLink(ctx, token); err != nil {
		t.Fatalf("DeactivateShareLink failed: %v", err)
	}

	// Inactive is indistinguishable from nonexistent.
	_, err := repo.RedeemShareToken(ctx, token)
	if !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound for inactive token, got: %v", err)
	}

	// Counter stays where deactivation left it.
	retrieved, err := repo.GetShareLinkByToken(ctx, token)
	if err != nil {
		t.Fatalf("GetShareLinkByToken failed: %v", err)
	}
	if retrieved.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", retrieved.AccessCount)
	}
}

func TestIntegrationShareRepository_RedeemUnknownToken(t *testing.T) {
	ctx, repo := newShareTestEnv(t)

	_, err := repo.RedeemShareToken(ctx, "never-issued")
	if !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound, got: %v", err)
	}
}

func newShareTestEnv(t *testing.T) (context.Context, *Repository) {
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

	if err := testutil.ResetShareLinksSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset share_links schema: %v", err)
	}

	return ctx, repo
}
