package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// techAdjustmentsTotal counts adjustment rows by entity kind and status
	techAdjustmentsTotal *prometheus.CounterVec

	// statusTableSize tracks loaded techniques per partition and status
	statusTableSize *prometheus.GaugeVec

	// loadDuration tracks how long a full knowledge-base + dataset load takes
	loadDuration prometheus.Histogram

	// loadFailuresTotal counts aborted loads by stage
	loadFailuresTotal *prometheus.CounterVec

	// httpRequestsTotal counts API requests by route and status code
	httpRequestsTotal *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics.
// This should be called once at application startup
func InitMetrics() {
	metricsOnce.Do(func() {
		techAdjustmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftwatch_tech_adjustments_total",
				Help: "Total number of technique adjustments by entity kind and status",
			},
			[]string{"kind", "status"},
		)

		statusTableSize = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "driftwatch_status_table_techniques",
				Help: "Number of techniques in the loaded status table by partition and status",
			},
			[]string{"partition", "status"},
		)

		loadDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "driftwatch_load_duration_seconds",
				Help:    "Duration of knowledge-base and dataset loads in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		)

		loadFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftwatch_load_failures_total",
				Help: "Total number of aborted loads by stage",
			},
			[]string{"stage"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftwatch_http_requests_total",
				Help: "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		)
	})
}

// RecordAdjustments counts every row of an audit trail.
// kind: "item", "tmpl", "user"
func RecordAdjustments(kind string, adjustments []domain.TechAdjustment) {
	if techAdjustmentsTotal == nil {
		return
	}
	for _, adj := range adjustments {
		techAdjustmentsTotal.WithLabelValues(kind, string(adj.Status)).Inc()
	}
}

// RecordReport counts every row of a dataset audit report.
func RecordReport(report domain.DatasetAdjustments) {
	for _, rows := range report.Items {
		RecordAdjustments("item", rows)
	}
	for _, rows := range report.Templates {
		RecordAdjustments("tmpl", rows)
	}
}

// RecordPartition publishes the per-status technique counts of a partition.
func RecordPartition(partition domain.StatusPartition) {
	if statusTableSize == nil {
		return
	}
	counts := partition.Table.CountByKind()
	for _, kind := range []domain.StatusKind{domain.StatusActive, domain.StatusDeprecated, domain.StatusRevoked} {
		statusTableSize.WithLabelValues(partition.Partition, string(kind)).Set(float64(counts[kind]))
	}
}

// RecordLoadDuration records the duration of a completed load
func RecordLoadDuration(duration time.Duration) {
	if loadDuration != nil {
		loadDuration.Observe(duration.Seconds())
	}
}

// RecordLoadFailure records an aborted load.
// stage: "load"
func RecordLoadFailure(stage string) {
	if loadFailuresTotal != nil {
		loadFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// RecordRequest records a served API request
func RecordRequest(route string, code string) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(route, code).Inc()
	}
}

// LoadTimer is a helper for timing loads
type LoadTimer struct {
	start time.Time
}

// StartTimer creates a new timer for measuring load duration
func StartTimer() *LoadTimer {
	return &LoadTimer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started
func (t *LoadTimer) ObserveDuration() {
	if t != nil {
		RecordLoadDuration(time.Since(t.start))
	}
}
