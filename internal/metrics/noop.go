package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncVideoCacheHit is a no-op.
func (n *NoopRecorder) IncVideoCacheHit() {}

// IncVideoCacheMiss is a no-op.
func (n *NoopRecorder) IncVideoCacheMiss() {}

// IncViewRecorded is a no-op.
func (n *NoopRecorder) IncViewRecorded() {}

// IncLikeToggled is a no-op.
func (n *NoopRecorder) IncLikeToggled(state string) {}

// IncShareCreated is a no-op.
func (n *NoopRecorder) IncShareCreated() {}

// IncShareRedeemed is a no-op.
func (n *NoopRecorder) IncShareRedeemed(status string) {}

// IncPrivacyTransition is a no-op.
func (n *NoopRecorder) IncPrivacyTransition(trigger string) {}

// ObserveRankDuration is a no-op.
func (n *NoopRecorder) ObserveRankDuration(kind string, duration time.Duration) {}

// IncSweepRun is a no-op.
func (n *NoopRecorder) IncSweepRun() {}

// ObserveSweepPrivatized is a no-op.
func (n *NoopRecorder) ObserveSweepPrivatized(count int) {}
