// Package metrics provides Prometheus metrics for the video importer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"video_importer/internal/domain"
)

var (
	// RunsTotal counts finished sync runs.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "video_importer",
			Name:      "runs_total",
			Help:      "Total number of sync runs",
		},
		[]string{"trigger", "status"},
	)

	// RunDuration measures how long a sync run took.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "video_importer",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)

	// ItemsTotal counts processed videos by outcome and reason.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "video_importer",
			Name:      "items_total",
			Help:      "Total number of listed videos by outcome",
		},
		[]string{"outcome", "reason"},
	)

	ImageFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_importer",
			Name:      "featured_image_failures_total",
			Help:      "Imported articles left without a featured image",
		},
	)

	PublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "video_importer",
			Name:      "publish_errors_total",
			Help:      "Failed article.imported publishes",
		},
	)

	// RunsRejectedTotal counts triggers refused because a run was in progress.
	RunsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "video_importer",
			Name:      "runs_rejected_total",
			Help:      "Triggers rejected because another run held the lock",
		},
		[]string{"trigger"},
	)
)

// RecordRun records the counters of a finished run.
func RecordRun(summary *domain.RunSummary) {
	trigger := string(summary.Trigger)
	RunsTotal.WithLabelValues(trigger, string(summary.Status)).Inc()
	RunDuration.WithLabelValues(trigger).Observe(summary.Duration().Seconds())

	for _, item := range summary.Items {
		ItemsTotal.WithLabelValues(string(item.Outcome), item.Reason).Inc()
	}
	ImageFailuresTotal.Add(float64(summary.ImageFailures))
}

func RecordPublishError() {
	PublishErrorsTotal.Inc()
}

func RecordRejected(trigger domain.Trigger) {
	RunsRejectedTotal.WithLabelValues(string(trigger)).Inc()
}
