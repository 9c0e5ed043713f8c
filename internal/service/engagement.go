package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clipstream/clipstream/internal/cache"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/repository"
)

const (
	// shareTokenBytes gives 128 bits of entropy per token.
	shareTokenBytes = 16
	maxTokenRetries = 3
)

// EngagementService handles the mutating engagement operations: views,
// likes, and share links. Correctness under concurrent requests comes
// from the storage layer's atomic increments and unique constraints;
// this service holds no locks.
type EngagementService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
	now     func() time.Time
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *EngagementService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &EngagementService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordViewOutput is the result of recording a view.
type RecordViewOutput struct {
	Views         int64
	BecamePrivate bool
}

// RecordView counts a view and checks the auto-privatization policy.
// The lifetime counter increments on every call; authenticated viewers
// additionally get a view event deduped on (video, viewer), while
// anonymous views touch only the counter. When this view crosses the
// video's limit, the video flips to private and BecamePrivate reports
// it - the view that crossed the threshold still counts.
func (s *EngagementService) RecordView(ctx context.Context, videoID, viewerID string) (*RecordViewOutput, error) {
	video, err := s.repo.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	if !video.ViewableBy(viewerID) {
		return nil, ErrVideoPrivate
	}

	updated, err := s.repo.IncrementViews(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	if viewerID != "" {
		event := &model.ViewEvent{
			ID:       ulid.Make().String(),
			VideoID:  videoID,
			ViewerID: viewerID,
			ViewedAt: s.now(),
		}
		if _, err := s.repo.UpsertViewEvent(ctx, event); err != nil {
			return nil, err
		}
	}

	s.metrics.IncViewRecorded()

	becamePrivate := false
	if updated.ShouldBecomePrivate(s.now()) {
		changed, err := s.repo.MarkVideoPrivate(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if changed {
			becamePrivate = true
			s.metrics.IncPrivacyTransition(transitionTrigger(updated, s.now()))
		}
	}

	s.invalidateVideo(ctx, videoID)

	return &RecordViewOutput{
		Views:         updated.Views,
		BecamePrivate: becamePrivate,
	}, nil
}

// ToggleLikeOutput is the result of toggling a like.
type ToggleLikeOutput struct {
	Liked bool
	Likes int64
}

// ToggleLike flips the user's like state for a video. The like_events
// unique constraint arbitrates concurrent toggles: whichever insert or
// delete wins the row decides the counter adjustment, so the counter
// moves by at most one per state change.
func (s *EngagementService) ToggleLike(ctx context.Context, videoID, userID string) (*ToggleLikeOutput, error) {
	if userID == "" {
		return nil, ErrViewerRequired
	}

	video, err := s.repo.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	event := &model.LikeEvent{
		ID:        ulid.Make().String(),
		VideoID:   videoID,
		UserID:    userID,
		CreatedAt: s.now(),
	}

	inserted, err := s.repo.InsertLikeEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	if inserted {
		likes, err := s.repo.IncrementLikes(ctx, videoID, 1)
		if err != nil {
			return nil, err
		}
		s.metrics.IncLikeToggled("liked")
		s.invalidateVideo(ctx, videoID)
		return &ToggleLikeOutput{Liked: true, Likes: likes}, nil
	}

	deleted, err := s.repo.DeleteLikeEvent(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// A concurrent toggle already removed the row; the counter was
		// adjusted by whoever deleted it.
		return &ToggleLikeOutput{Liked: false, Likes: video.Likes}, nil
	}

	likes, err := s.repo.IncrementLikes(ctx, videoID, -1)
	if err != nil {
		return nil, err
	}
	s.metrics.IncLikeToggled("unliked")
	s.invalidateVideo(ctx, videoID)
	return &ToggleLikeOutput{Liked: false, Likes: likes}, nil
}

// CreateShare mints an unguessable share token for a video. Tokens are
// never reused; the unique constraint plus retry closes the (already
// astronomically unlikely) collision window.
func (s *EngagementService) CreateShare(ctx context.Context, videoID, creatorID string) (*model.ShareLink, error) {
	if creatorID == "" {
		return nil, ErrViewerRequired
	}

	if _, err := s.repo.GetVideoByID(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	for i := 0; i < maxTokenRetries; i++ {
		share := &model.ShareLink{
			ID:        ulid.Make().String(),
			Token:     generateShareToken(),
			VideoID:   videoID,
			CreatedBy: creatorID,
			Active:    true,
			CreatedAt: s.now(),
		}

		err := s.repo.CreateShareLink(ctx, share)
		if err == nil {
			s.metrics.IncShareCreated()
			return share, nil
		}
		if !errors.Is(err, repository.ErrTokenExists) {
			return nil, err
		}
	}

	return nil, errors.New("failed to generate unique share token after retries")
}

// RedeemShare resolves a share token to its video, counting the access
// exactly once. The token grants access regardless of the video's
// current visibility. Unknown and inactive tokens are indistinguishable.
func (s *EngagementService) RedeemShare(ctx context.Context, token string) (*model.Video, error) {
	isNegative, _ := s.cache.IsShareNegativelyCached(ctx, token)
	if isNegative {
		s.metrics.IncShareRedeemed("not_found")
		return nil, ErrShareNotFound
	}

	videoID, err := s.repo.RedeemShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			_ = s.cache.SetShareNegativeCache(ctx, token)
			s.metrics.IncShareRedeemed("not_found")
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	video, err := s.repo.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			// Token outlived its video; treat as a dead link.
			s.metrics.IncShareRedeemed("not_found")
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	s.metrics.IncShareRedeemed("success")
	return video, nil
}

// RevokeShare deactivates a token. Redemptions after this point fail
// with NotFound; the access counter keeps its final value.
func (s *EngagementService) RevokeShare(ctx context.Context, token string) error {
	err := s.repo.DeactivateShareLink(ctx, token)
	if errors.Is(err, repository.ErrShareNotFound) {
		return ErrShareNotFound
	}
	return err
}

// invalidateVideo drops the cached entry after a counter or visibility
// mutation. Best effort; a stale entry expires on its own TTL.
func (s *EngagementService) invalidateVideo(ctx context.Context, videoID string) {
	if err := s.cache.DeleteVideo(ctx, videoID); err != nil {
		_ = err
	}
}

// transitionTrigger classifies why a video went private.
func transitionTrigger(video *model.Video, now time.Time) string {
	if video.HasViewLimit() && video.Views >= *video.ViewLimit {
		return "view_limit"
	}
	if video.AutoPrivateAfter != nil && !now.Before(*video.AutoPrivateAfter) {
		return "expiry"
	}
	return "unknown"
}

// generateShareToken returns a hex token with shareTokenBytes of
// crypto/rand entropy.
func generateShareToken() string {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}
