package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Completion service metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec

	// Orchestration metrics
	TimeoutFallbacksTotal  prometheus.Counter
	DeferredPushTotal      *prometheus.CounterVec
	StageTransitionsTotal  *prometheus.CounterVec
	CrisisShortCircuits    prometheus.Counter
	ActiveSessions         prometheus.Gauge
	AdaptiveTimeoutSeconds prometheus.Gauge

	// De-duplication metrics
	DedupDroppedTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, dropped, reply_error
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asaoka_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"event_type"},
		),

		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_llm_requests_total",
				Help: "Total completion service calls by kind and status",
			},
			[]string{"kind", "status"}, // kind: structured, freeform; status: success, error
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asaoka_llm_duration_seconds",
				Help:    "Completion service call duration in seconds by kind",
				Buckets: []float64{0.5, 1, 2, 4, 8, 12, 18, 30, 60},
			},
			[]string{"kind"},
		),

		TimeoutFallbacksTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "asaoka_timeout_fallbacks_total",
				Help: "Times the adaptive wait elapsed and the reply switched to the deferred push path",
			},
		),

		DeferredPushTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_deferred_push_total",
				Help: "Deferred push deliveries by status",
			},
			[]string{"status"}, // status: sent, suppressed, error
		),

		StageTransitionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_stage_transitions_total",
				Help: "Stage transitions by from and to stage",
			},
			[]string{"from", "to"},
		),

		CrisisShortCircuits: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "asaoka_crisis_short_circuits_total",
				Help: "Messages answered with the fixed safety reply without a model call",
			},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "asaoka_active_sessions",
				Help: "Number of conversation sessions currently held in memory",
			},
		),

		AdaptiveTimeoutSeconds: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "asaoka_adaptive_timeout_seconds",
				Help: "Current adaptive reply wait bound in seconds",
			},
		),

		DedupDroppedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_dedup_dropped_total",
				Help: "Webhook events dropped by the deduplicator by reason",
			},
			[]string{"reason"}, // reason: already_handled, duplicate_in_flight
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "asaoka_rate_limiter_dropped_total",
				Help: "Requests dropped by rate limiters by limiter name",
			},
			[]string{"limiter"},
		),
	}

	return m
}

// RecordWebhook records a webhook event with duration
func (m *Metrics) RecordWebhook(eventType, status string, durationSeconds float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	if durationSeconds > 0 {
		m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(durationSeconds)
	}
}

// RecordLLMCall records a completion service call with duration
func (m *Metrics) RecordLLMCall(kind, status string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(kind, status).Inc()
	if durationSeconds > 0 {
		m.LLMDurationSeconds.WithLabelValues(kind).Observe(durationSeconds)
	}
}

// RecordStageTransition records a session stage transition
func (m *Metrics) RecordStageTransition(from, to string) {
	m.StageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordDedupDrop records an event suppressed by the deduplicator
func (m *Metrics) RecordDedupDrop(reason string) {
	m.DedupDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordDeferredPush records the outcome of a deferred push delivery
func (m *Metrics) RecordDeferredPush(status string) {
	m.DeferredPushTotal.WithLabelValues(status).Inc()
}

// RecordRateLimiterDrop records a request dropped by a rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}
