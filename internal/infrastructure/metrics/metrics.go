package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// Metrics holds all Prometheus metrics. It implements usecase.MetricsRecorder.
type Metrics struct {
	// Admission metrics
	Admissions *prometheus.CounterVec
	Rejections *prometheus.CounterVec

	// Recompute metrics
	RecomputeDuration prometheus.Histogram
	RecomputeWrites   prometheus.Counter

	// Import metrics
	ImportedEntries prometheus.Counter
	SkippedRecords  prometheus.Counter

	// Ledger state
	TotalBalance prometheus.Gauge

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Admissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerly_admissions_total",
				Help: "Entry admissions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerly_rejections_total",
				Help: "Rejected admissions by reason",
			},
			[]string{"reason"},
		),

		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerly_recompute_duration_seconds",
			Help:    "Duration of full running balance recomputes",
			Buckets: prometheus.DefBuckets,
		}),
		RecomputeWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerly_recompute_writes_total",
			Help: "Running balances rewritten by recompute",
		}),

		ImportedEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerly_imported_entries_total",
			Help: "Entries inserted by imports",
		}),
		SkippedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerly_import_skipped_total",
			Help: "Import records skipped as malformed or duplicate",
		}),

		TotalBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledgerly_total_balance",
			Help: "Running balance of the chronologically last entry",
		}),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerly_outbox_events_total",
				Help: "Outbox events handled by the publisher",
			},
			[]string{"event_type", "status"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerly_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

var _ usecase.MetricsRecorder = (*Metrics)(nil)

// ObserveAdmission counts one admission attempt.
func (m *Metrics) ObserveAdmission(kind domain.Kind, outcome string) {
	m.Admissions.WithLabelValues(string(kind), outcome).Inc()
	if outcome != usecase.OutcomeAdmitted {
		m.Rejections.WithLabelValues(outcome).Inc()
	}
}

// ObserveRecompute records one recompute pass.
func (m *Metrics) ObserveRecompute(duration time.Duration, writes int) {
	m.RecomputeDuration.Observe(duration.Seconds())
	m.RecomputeWrites.Add(float64(writes))
}

// ObserveImport records one batch import.
func (m *Metrics) ObserveImport(imported, skipped int) {
	m.ImportedEntries.Add(float64(imported))
	m.SkippedRecords.Add(float64(skipped))
}

// SetTotalBalance publishes the current total.
func (m *Metrics) SetTotalBalance(balance decimal.Decimal) {
	m.TotalBalance.Set(balance.InexactFloat64())
}

// ObserveOutboxEvent counts one publish attempt.
func (m *Metrics) ObserveOutboxEvent(eventType string, err error) {
	status := "published"
	if err != nil {
		status = "failed"
	}
	m.OutboxPublished.WithLabelValues(eventType, status).Inc()
}

// ObserveRateLimited counts one rate-limited request.
func (m *Metrics) ObserveRateLimited() {
	m.RateLimitHits.Inc()
}
