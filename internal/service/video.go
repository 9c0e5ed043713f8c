package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clipstream/clipstream/internal/cache"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/repository"
)

// VideoService handles video registration and the cached read path.
type VideoService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
	now     func() time.Time
}

// NewVideoService creates a new VideoService.
func NewVideoService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *VideoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &VideoService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateVideoInput defines input for registering a video.
// The upload itself happens elsewhere; this records the entity the
// engagement engine tracks.
type CreateVideoInput struct {
	ID               string // optional; generated when empty
	OwnerID          string
	Title            string
	Category         string
	Visibility       string
	ViewLimit        *int64
	AutoPrivateAfter *time.Time
	UploadedAt       *time.Time
}

// CreateVideo registers a new video with zeroed counters.
func (s *VideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	visibility := model.VisibilityPublic
	if input.Visibility != "" {
		visibility = model.Visibility(input.Visibility)
		if !visibility.IsValid() {
			return nil, ErrInvalidVisibility
		}
	}

	if input.ViewLimit != nil && *input.ViewLimit < 0 {
		return nil, ErrInvalidViewLimit
	}

	now := s.now()
	if input.AutoPrivateAfter != nil && !input.AutoPrivateAfter.After(now) {
		return nil, ErrExpiryInPast
	}

	uploadedAt := now
	if input.UploadedAt != nil {
		uploadedAt = input.UploadedAt.UTC()
	}

	id := input.ID
	if id == "" {
		id = ulid.Make().String()
	}

	video := &model.Video{
		ID:               id,
		OwnerID:          input.OwnerID,
		Title:            input.Title,
		Category:         input.Category,
		Visibility:       visibility,
		ViewLimit:        input.ViewLimit,
		AutoPrivateAfter: input.AutoPrivateAfter,
		UploadedAt:       uploadedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	return video, nil
}

// GetVideo retrieves a video for a caller, cache-first. Private videos
// are served only to their owner; everyone else gets ErrVideoPrivate
// without counter or title leakage.
func (s *VideoService) GetVideo(ctx context.Context, id, callerID string) (*model.Video, error) {
	video, err := s.lookupVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if !video.ViewableBy(callerID) {
		return nil, ErrVideoPrivate
	}

	return video, nil
}

// lookupVideo is the shared cache-first read. A cached entry past its
// auto-private deadline is evicted and re-read so the response never
// claims a video is public after its cutoff.
func (s *VideoService) lookupVideo(ctx context.Context, id string) (*model.Video, error) {
	cached, err := s.cache.GetVideo(ctx, id)
	if err == nil {
		video := cached.ToVideo(id)
		if video.IsPrivate() || !video.ShouldBecomePrivate(s.now()) {
			s.metrics.IncVideoCacheHit()
			return video, nil
		}
		// Stale public entry; drop it and consult the database.
		_ = s.cache.DeleteVideo(ctx, id)
	} else if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncVideoCacheMiss()
		isNegative, _ := s.cache.IsVideoNegativelyCached(ctx, id)
		if isNegative {
			return nil, ErrVideoNotFound
		}
	}
	// Redis errors fall through to the database.

	video, err := s.repo.GetVideoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			_ = s.cache.SetVideoNegativeCache(ctx, id)
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	// Self-heal: a video whose deadline elapsed without a triggering
	// write is privatized here rather than waiting for the sweep.
	if !video.IsPrivate() && video.ShouldBecomePrivate(s.now()) {
		changed, err := s.repo.MarkVideoPrivate(ctx, id)
		if err != nil {
			return nil, err
		}
		if changed {
			s.metrics.IncPrivacyTransition("read_heal")
		}
		video.Visibility = model.VisibilityPrivate
	}

	if err := s.cache.SetVideo(ctx, video, s.now()); err != nil {
		// Log but don't fail - eventual consistency is acceptable
		_ = err
	}

	return video, nil
}
