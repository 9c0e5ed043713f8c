// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Video read path metrics
	IncVideoCacheHit()
	IncVideoCacheMiss()

	// Engagement metrics
	IncViewRecorded()
	IncLikeToggled(state string) // state: "liked" or "unliked"
	IncShareCreated()
	IncShareRedeemed(status string) // status: "success" or "not_found"

	// Visibility policy metrics
	IncPrivacyTransition(trigger string) // trigger: "view_limit", "expiry", "read_heal", "unknown"

	// Feed metrics
	ObserveRankDuration(kind string, duration time.Duration)

	// Sweeper metrics
	IncSweepRun()
	ObserveSweepPrivatized(count int)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
