package handler

import (
	"fmt"
	"net/http"

	"github.com/clipstream/clipstream/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "clipstream_video_cache_hits_total %d\n", snap.VideoCacheHits)
	writeMetric(w, "clipstream_video_cache_misses_total %d\n", snap.VideoCacheMisses)

	writeMetric(w, "clipstream_views_recorded_total %d\n", snap.ViewsRecorded)
	writeMetric(w, "clipstream_likes_toggled_total{state=\"liked\"} %d\n", snap.Likes)
	writeMetric(w, "clipstream_likes_toggled_total{state=\"unliked\"} %d\n", snap.Unlikes)

	writeMetric(w, "clipstream_shares_created_total %d\n", snap.SharesCreated)
	writeMetric(w, "clipstream_shares_redeemed_total{status=\"success\"} %d\n", snap.SharesRedeemed)
	writeMetric(w, "clipstream_shares_redeemed_total{status=\"not_found\"} %d\n", snap.SharesNotFound)

	for trigger, count := range snap.PrivacyTransitions {
		writeMetric(w, "clipstream_privacy_transitions_total{trigger=%q} %d\n", trigger, count)
	}

	writeMetric(w, "clipstream_rank_duration_seconds_count %d\n", snap.RankDurationCount)
	writeMetric(w, "clipstream_rank_duration_seconds_sum %.6f\n", float64(snap.RankDurationTotalNs)/1e9)

	writeMetric(w, "clipstream_sweep_runs_total %d\n", snap.SweepRuns)
	writeMetric(w, "clipstream_sweep_privatized_total %d\n", snap.SweepPrivatized)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
