// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Decision loop metrics
	TicksTotal        *prometheus.CounterVec
	TickDuration      prometheus.Histogram
	ActionsTotal      *prometheus.CounterVec
	ImpactVetoes      prometheus.Counter
	StopTriggers      *prometheus.CounterVec
	PositionFraction  *prometheus.GaugeVec
	CompositeScore    *prometheus.GaugeVec
	RegimeTransitions *prometheus.CounterVec

	// Optimizer metrics
	OptimizerRunsTotal *prometheus.CounterVec
	OptimizerDuration  prometheus.Histogram
	OptimizerBestScore *prometheus.GaugeVec

	// Feed metrics
	PriceUpdatesReceived prometheus.Counter
	CandlesStored        prometheus.Counter
	FeedReconnects       prometheus.Counter

	// Collaborator metrics
	CollaboratorLatency *prometheus.HistogramVec
	CollaboratorErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "radbot"
	}

	return &Metrics{
		// Decision loop metrics
		TicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total number of decision ticks by result",
		}, []string{"result"}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Decision tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "actions_total",
			Help:      "Total number of actions by kind and reason",
		}, []string{"kind", "reason"}),
		ImpactVetoes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "impact_vetoes_total",
			Help:      "Total number of actions vetoed for price impact",
		}),
		StopTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stop_triggers_total",
			Help:      "Total number of stop-loss and trailing-stop triggers",
		}, []string{"reason"}),
		PositionFraction: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "position_fraction",
			Help:      "Current Kelly position fraction per trade",
		}, []string{"trade_id"}),
		CompositeScore: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "composite_score",
			Help:      "Last AI composite score per trade",
		}, []string{"trade_id"}),
		RegimeTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "regime_observations_total",
			Help:      "Total number of regime classifications by label",
		}, []string{"regime"}),

		// Optimizer metrics
		OptimizerRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "runs_total",
			Help:      "Total number of optimizer runs by status",
		}, []string{"status"}),
		OptimizerDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "duration_seconds",
			Help:      "Optimizer run duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		OptimizerBestScore: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "best_score",
			Help:      "Score of the best candidate in the last run per trade",
		}, []string{"trade_id"}),

		// Feed metrics
		PriceUpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "price_updates_received_total",
			Help:      "Total number of streamed price updates",
		}),
		CandlesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "candles_stored_total",
			Help:      "Total number of aggregated candles stored",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts",
		}),

		// Collaborator metrics
		CollaboratorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "latency_seconds",
			Help:      "External collaborator call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collaborator"}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "errors_total",
			Help:      "Total number of external collaborator failures",
		}, []string{"collaborator"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of last successful decision tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick records a decision tick and its duration.
func RecordTick(result string, seconds float64) {
	DefaultMetrics.TicksTotal.WithLabelValues(result).Inc()
	DefaultMetrics.TickDuration.Observe(seconds)
}

// RecordAction records an action by kind and reason.
func RecordAction(kind, reason string) {
	DefaultMetrics.ActionsTotal.WithLabelValues(kind, reason).Inc()
}

// RecordImpactVeto increments the price impact veto counter.
func RecordImpactVeto() {
	DefaultMetrics.ImpactVetoes.Inc()
}

// RecordStopTrigger records a forced exit trigger.
func RecordStopTrigger(reason string) {
	DefaultMetrics.StopTriggers.WithLabelValues(reason).Inc()
}

// UpdatePositionFraction sets the Kelly fraction gauge for a trade.
func UpdatePositionFraction(tradeID string, fraction float64) {
	DefaultMetrics.PositionFraction.WithLabelValues(tradeID).Set(fraction)
}

// UpdateComposite sets the AI composite gauge and counts the regime seen.
func UpdateComposite(tradeID, regime string, composite float64) {
	DefaultMetrics.CompositeScore.WithLabelValues(tradeID).Set(composite)
	DefaultMetrics.RegimeTransitions.WithLabelValues(regime).Inc()
}

// RecordOptimizerRun records an optimizer run.
func RecordOptimizerRun(tradeID, status string, seconds, bestScore float64) {
	DefaultMetrics.OptimizerRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.OptimizerDuration.Observe(seconds)
	if tradeID != "" {
		DefaultMetrics.OptimizerBestScore.WithLabelValues(tradeID).Set(bestScore)
	}
}

// RecordPriceUpdate increments the streamed price counter.
func RecordPriceUpdate() {
	DefaultMetrics.PriceUpdatesReceived.Inc()
}

// RecordCandlesStored adds n to the stored candle counter.
func RecordCandlesStored(n int) {
	DefaultMetrics.CandlesStored.Add(float64(n))
}

// RecordFeedReconnect increments the reconnect counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// RecordCollaboratorCall records external collaborator latency and failures.
func RecordCollaboratorCall(collaborator string, seconds float64, err error) {
	DefaultMetrics.CollaboratorLatency.WithLabelValues(collaborator).Observe(seconds)
	if err != nil {
		DefaultMetrics.CollaboratorErrors.WithLabelValues(collaborator).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkTickSuccess stamps the last successful tick time.
func MarkTickSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulTick.Set(float64(unixSeconds))
}
