package service

import (
	"context"
	"errors"
	"time"

	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/ranking"
	"github.com/clipstream/clipstream/internal/repository"
)

// FeedService assembles feeds: it pulls bounded snapshots from the
// repository and hands them to the pure ranking functions.
type FeedService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
	now     func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(repo *repository.Repository, recorder metrics.Recorder) *FeedService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FeedService{
		repo:    repo,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RankInput defines a feed request.
type RankInput struct {
	Kind     ranking.Kind
	Category string
	ViewerID string
	Page     ranking.Page
}

// Rank returns the ordered page of videos for a feed request. Every
// kind operates on the same public snapshot; malformed pagination is
// clamped, never rejected.
func (s *FeedService) Rank(ctx context.Context, input RankInput) ([]*model.Video, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRankDuration(string(input.Kind), time.Since(start))
	}()

	videos, err := s.repo.ListPublicVideos(ctx)
	if err != nil {
		return nil, err
	}

	switch input.Kind {
	case ranking.KindPopularity:
		return ranking.Popular(videos, input.Page), nil

	case ranking.KindFeatured:
		return ranking.Featured(videos, input.Page), nil

	case ranking.KindTrending:
		now := s.now()
		windowViews, err := s.repo.CountRecentViews(ctx, now.Add(-ranking.TrendingWindow))
		if err != nil {
			return nil, err
		}
		return ranking.Trending(videos, windowViews, now, input.Page), nil

	case ranking.KindCategory:
		return ranking.Category(videos, input.Category, input.Page), nil

	case ranking.KindRecent:
		return ranking.Recent(videos, input.Page), nil

	case ranking.KindPreference, ranking.KindRecommendations:
		return s.rankPreferred(ctx, videos, input)

	default:
		return ranking.Popular(videos, input.Page), nil
	}
}

// rankPreferred personalizes the feed when a viewer is known. Anonymous
// requests and viewers without stored preferences degrade to the
// popularity ordering rather than erroring.
func (s *FeedService) rankPreferred(ctx context.Context, videos []*model.Video, input RankInput) ([]*model.Video, error) {
	if input.ViewerID == "" {
		return ranking.Popular(videos, input.Page), nil
	}

	profile, err := s.repo.GetViewerProfile(ctx, input.ViewerID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return ranking.Popular(videos, input.Page), nil
		}
		return nil, err
	}

	watched, err := s.repo.ListViewedVideoIDs(ctx, input.ViewerID)
	if err != nil {
		return nil, err
	}

	return ranking.Preferred(videos, profile.Preferences, watched, input.Page), nil
}

// GetPreferences returns the viewer's stored preference list. A viewer
// with no profile has an empty list, not an error.
func (s *FeedService) GetPreferences(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrViewerRequired
	}

	profile, err := s.repo.GetViewerProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	return profile.Preferences, nil
}

// UpdatePreferences replaces the viewer's preference list.
func (s *FeedService) UpdatePreferences(ctx context.Context, userID string, prefs []string) error {
	if userID == "" {
		return ErrViewerRequired
	}

	profile := &model.ViewerProfile{
		UserID:      userID,
		Preferences: prefs,
		UpdatedAt:   s.now(),
	}

	return s.repo.UpsertViewerProfile(ctx, profile)
}
