// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	SchedulerTicks         prometheus.Counter
	SchedulerItems         *prometheus.CounterVec
	SchedulerRenewalErrors prometheus.Counter
	SchedulerTickDuration  prometheus.Histogram
	SchedulerDueEntries    prometheus.Gauge

	// Enrichment metrics
	EnrichmentFacets *prometheus.CounterVec

	// Provider metrics
	ProviderLatency *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec

	// Webhook metrics
	WebhookBatches       prometheus.Counter
	WebhookTransfers     *prometheus.CounterVec
	WebhookPersistErrors prometheus.Counter
	WebhookBackfills     *prometheus.CounterVec

	// Job metrics
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Score metrics
	ScoreComputations *prometheus.CounterVec
	FearGreedValue    *prometheus.GaugeVec

	// Realtime metrics
	RealtimeClients prometheus.Gauge

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "alpha_move"
	}

	return &Metrics{
		// Scheduler metrics
		SchedulerTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total number of watch queue ticks",
		}),
		SchedulerItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "items_total",
			Help:      "Total number of watch entries processed by outcome",
		}, []string{"outcome"}),
		SchedulerRenewalErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "renewal_errors_total",
			Help:      "Total number of failed watch entry renewals",
		}),
		SchedulerTickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Watch queue tick duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SchedulerDueEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "due_entries",
			Help:      "Number of due entries selected by the last tick",
		}),

		// Enrichment metrics
		EnrichmentFacets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "facets_total",
			Help:      "Total number of enrichment facet outcomes by facet and status",
		}, []string{"facet", "status"}),

		// Provider metrics
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Upstream provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of failed upstream requests by kind",
		}, []string{"provider", "kind"}),

		// Webhook metrics
		WebhookBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "batches_total",
			Help:      "Total number of webhook batches received",
		}),
		WebhookTransfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "transfers_total",
			Help:      "Total number of classified mover transfers by action",
		}, []string{"action"}),
		WebhookPersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "persist_errors_total",
			Help:      "Total number of mover transactions that failed to persist",
		}),
		WebhookBackfills: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "backfills_total",
			Help:      "Total number of unknown-token overview backfills by status",
		}, []string{"status"}),

		// Job metrics
		JobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of scheduled job runs by status",
		}, []string{"job", "status"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Scheduled job duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"job"}),

		// Score metrics
		ScoreComputations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "computations_total",
			Help:      "Total number of composite fear/greed requests by result",
		}, []string{"result"}),
		FearGreedValue: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "fear_greed_value",
			Help:      "Latest composite fear/greed value by chain",
		}, []string{"chain"}),

		// Realtime metrics
		RealtimeClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "clients",
			Help:      "Number of connected live-feed clients",
		}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of last completed watch queue tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick records a completed watch queue tick.
func RecordTick(due int, d time.Duration) {
	DefaultMetrics.SchedulerTicks.Inc()
	DefaultMetrics.SchedulerDueEntries.Set(float64(due))
	DefaultMetrics.SchedulerTickDuration.Observe(d.Seconds())
	DefaultMetrics.LastSuccessfulTick.SetToCurrentTime()
}

// RecordSchedulerItem records the outcome of one watch entry ("ok", "panic").
func RecordSchedulerItem(outcome string) {
	DefaultMetrics.SchedulerItems.WithLabelValues(outcome).Inc()
}

// RecordRenewalError increments the renewal error counter.
func RecordRenewalError() {
	DefaultMetrics.SchedulerRenewalErrors.Inc()
}

// RecordFacet records an enrichment facet outcome.
func RecordFacet(facet, status string) {
	DefaultMetrics.EnrichmentFacets.WithLabelValues(facet, status).Inc()
}

// RecordProviderCall records upstream latency and, when err is set, its kind.
func RecordProviderCall(provider, endpoint string, d time.Duration, errKind string) {
	DefaultMetrics.ProviderLatency.WithLabelValues(provider, endpoint).Observe(d.Seconds())
	if errKind != "" {
		DefaultMetrics.ProviderErrors.WithLabelValues(provider, errKind).Inc()
	}
}

// RecordWebhookBatch increments the webhook batch counter.
func RecordWebhookBatch() {
	DefaultMetrics.WebhookBatches.Inc()
}

// RecordMoverTransfer records a classified transfer.
func RecordMoverTransfer(action string) {
	DefaultMetrics.WebhookTransfers.WithLabelValues(action).Inc()
}

// RecordWebhookPersistError increments the webhook persist error counter.
func RecordWebhookPersistError() {
	DefaultMetrics.WebhookPersistErrors.Inc()
}

// RecordBackfill records an unknown-token backfill by status.
func RecordBackfill(status string) {
	DefaultMetrics.WebhookBackfills.WithLabelValues(status).Inc()
}

// RecordJobRun records a scheduled job run.
func RecordJobRun(job, status string, d time.Duration) {
	DefaultMetrics.JobRuns.WithLabelValues(job, status).Inc()
	DefaultMetrics.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// RecordScore records a composite request result ("cached", "computed", "unavailable", "error").
func RecordScore(result string) {
	DefaultMetrics.ScoreComputations.WithLabelValues(result).Inc()
}

// UpdateFearGreed sets the latest composite value of chain.
func UpdateFearGreed(chain string, value int) {
	DefaultMetrics.FearGreedValue.WithLabelValues(chain).Set(float64(value))
}

// UpdateRealtimeClients sets the connected live-feed client gauge.
func UpdateRealtimeClients(n int) {
	DefaultMetrics.RealtimeClients.Set(float64(n))
}
