// Package sweeper runs the background auto-privatization sweep.
//
// The counter path already privatizes videos the moment a view crosses
// their limit. The sweep covers the transitions no request triggers: a
// video whose deadline passes while nobody is watching, or whose limit
// was lowered after the fact. Both run as set-based UPDATEs so a sweep
// over a large table is a couple of statements, not a row loop.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clipstream/clipstream/internal/cache"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/repository"
)

// DefaultInterval is how often the sweep runs.
const DefaultInterval = time.Minute

// Sweeper periodically flips overdue videos to private.
type Sweeper struct {
	repo     *repository.Repository
	cache    *cache.Cache
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration
	now      func() time.Time

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// New creates a new Sweeper.
func New(repo *repository.Repository, cache *cache.Cache, logger *slog.Logger, recorder metrics.Recorder, interval time.Duration) *Sweeper {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		repo:     repo,
		cache:    cache,
		logger:   logger.With("component", "sweeper"),
		metrics:  recorder,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the sweep loop. Blocks until context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("sweeper already started")
	}
	s.started = true
	s.done = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	defer close(s.done)

	s.logger.Info("sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.logger.Error("sweep error", "error", err)
			}
		}
	}
}

// SweepOnce runs a single sweep pass.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	s.metrics.IncSweepRun()

	expired, err := s.repo.PrivatizeExpired(ctx, s.now())
	if err != nil {
		return err
	}

	limited, err := s.repo.PrivatizeViewLimited(ctx)
	if err != nil {
		return err
	}

	total := len(expired) + len(limited)
	s.metrics.ObserveSweepPrivatized(total)
	if total == 0 {
		return nil
	}

	for range expired {
		s.metrics.IncPrivacyTransition("expiry")
	}
	for range limited {
		s.metrics.IncPrivacyTransition("view_limit")
	}

	for _, id := range append(expired, limited...) {
		if err := s.cache.DeleteVideo(ctx, id); err != nil {
			s.logger.Warn("failed to invalidate cached video", "video_id", id, "error", err)
		}
	}

	s.logger.Info("sweep privatized videos",
		"expired", len(expired),
		"view_limited", len(limited),
	)

	return nil
}

// Shutdown gracefully stops the sweeper, completing any in-flight pass.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			s.logger.Info("sweeper shutdown complete")
			return nil
		case <-ctx.Done():
			s.logger.Warn("sweeper shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}
