package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	VideoCacheHits      uint64
	VideoCacheMisses    uint64
	ViewsRecorded       uint64
	Likes               uint64
	Unlikes             uint64
	SharesCreated       uint64
	SharesRedeemed      uint64
	SharesNotFound      uint64
	PrivacyTransitions  map[string]uint64
	RankDurationCount   uint64
	RankDurationTotalNs int64
	SweepRuns           uint64
	SweepPrivatized     uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	videoCacheHits      uint64
	videoCacheMisses    uint64
	viewsRecorded       uint64
	likes               uint64
	unlikes             uint64
	sharesCreated       uint64
	sharesRedeemed      uint64
	sharesNotFound      uint64
	rankDurationCount   uint64
	rankDurationTotalNs int64
	sweepRuns           uint64
	sweepPrivatized     uint64

	mu                 sync.Mutex
	privacyTransitions map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		privacyTransitions: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	transitions := make(map[string]uint64, len(m.privacyTransitions))
	for k, v := range m.privacyTransitions {
		transitions[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		VideoCacheHits:      atomic.LoadUint64(&m.videoCacheHits),
		VideoCacheMisses:    atomic.LoadUint64(&m.videoCacheMisses),
		ViewsRecorded:       atomic.LoadUint64(&m.viewsRecorded),
		Likes:               atomic.LoadUint64(&m.likes),
		Unlikes:             atomic.LoadUint64(&m.unlikes),
		SharesCreated:       atomic.LoadUint64(&m.sharesCreated),
		SharesRedeemed:      atomic.LoadUint64(&m.sharesRedeemed),
		SharesNotFound:      atomic.LoadUint64(&m.sharesNotFound),
		PrivacyTransitions:  transitions,
		RankDurationCount:   atomic.LoadUint64(&m.rankDurationCount),
		RankDurationTotalNs: atomic.LoadInt64(&m.rankDurationTotalNs),
		SweepRuns:           atomic.LoadUint64(&m.sweepRuns),
		SweepPrivatized:     atomic.LoadUint64(&m.sweepPrivatized),
	}
}

// IncVideoCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncVideoCacheHit() {
	atomic.AddUint64(&m.videoCacheHits, 1)
}

// IncVideoCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncVideoCacheMiss() {
	atomic.AddUint64(&m.videoCacheMisses, 1)
}

// IncViewRecorded increments the recorded view counter.
func (m *InMemoryRecorder) IncViewRecorded() {
	atomic.AddUint64(&m.viewsRecorded, 1)
}

// IncLikeToggled increments the like or unlike counter.
func (m *InMemoryRecorder) IncLikeToggled(state string) {
	if state == "liked" {
		atomic.AddUint64(&m.likes, 1)
		return
	}
	atomic.AddUint64(&m.unlikes, 1)
}

// IncShareCreated increments the share created counter.
func (m *InMemoryRecorder) IncShareCreated() {
	atomic.AddUint64(&m.sharesCreated, 1)
}

// IncShareRedeemed increments the redemption counter for a status.
func (m *InMemoryRecorder) IncShareRedeemed(status string) {
	if status == "success" {
		atomic.AddUint64(&m.sharesRedeemed, 1)
		return
	}
	atomic.AddUint64(&m.sharesNotFound, 1)
}

// IncPrivacyTransition increments the transition counter for a trigger.
func (m *InMemoryRecorder) IncPrivacyTransition(trigger string) {
	m.mu.Lock()
	m.privacyTransitions[trigger]++
	m.mu.Unlock()
}

// ObserveRankDuration records a ranking pass duration.
func (m *InMemoryRecorder) ObserveRankDuration(kind string, duration time.Duration) {
	atomic.AddUint64(&m.rankDurationCount, 1)
	atomic.AddInt64(&m.rankDurationTotalNs, duration.Nanoseconds())
}

// IncSweepRun increments the sweep run counter.
func (m *InMemoryRecorder) IncSweepRun() {
	atomic.AddUint64(&m.sweepRuns, 1)
}

// ObserveSweepPrivatized records how many videos a sweep privatized.
func (m *InMemoryRecorder) ObserveSweepPrivatized(count int) {
	atomic.AddUint64(&m.sweepPrivatized, uint64(count))
}
