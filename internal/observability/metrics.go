package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsActive  prometheus.Gauge

	// Audit metrics
	AuditsTotal   *prometheus.CounterVec
	AuditDuration *prometheus.HistogramVec
	HealthScores  *prometheus.HistogramVec

	// AI provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	StaticFallbacksTotal    prometheus.Counter

	// NLP metrics
	NLPTasksTotal  *prometheus.CounterVec
	NLPCacheHits   prometheus.Counter
	NLPCacheMisses prometheus.Counter

	// Comparison pipeline metrics
	ComparisonsStarted   prometheus.Counter
	ComparisonsCompleted *prometheus.CounterVec
	ComparisonDuration   prometheus.Histogram
	CompetitorsAnalyzed  prometheus.Histogram

	// Temporal workflow metrics
	WorkflowsStarted   *prometheus.CounterVec
	WorkflowsCompleted *prometheus.CounterVec
	ActivitiesExecuted *prometheus.CounterVec

	// System metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates a new metrics instance with all Prometheus metrics registered
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "webpulse"
	}

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_active",
				Help:      "Number of active HTTP requests",
			},
		),

		// Audit metrics
		AuditsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audits_total",
				Help:      "Total number of site audits",
			},
			[]string{"mode", "status"},
		),
		AuditDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audit_duration_seconds",
				Help:      "Full audit duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"mode"},
		),
		HealthScores: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "health_score",
				Help:      "Distribution of computed health scores",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"module"},
		),

		// AI provider metrics
		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of AI provider completion requests",
			},
			[]string{"provider", "status"},
		),
		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "AI provider request duration in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),
		StaticFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "static_fallbacks_total",
				Help:      "Times the static terminal fallback served a response",
			},
		),

		// NLP metrics
		NLPTasksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nlp_tasks_total",
				Help:      "Total number of NLP analysis tasks",
			},
			[]string{"task", "status"},
		),
		NLPCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nlp_cache_hits_total",
				Help:      "Total number of NLP cache hits",
			},
		),
		NLPCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nlp_cache_misses_total",
				Help:      "Total number of NLP cache misses",
			},
		),

		// Comparison pipeline metrics
		ComparisonsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_started_total",
				Help:      "Total number of competitor comparisons started",
			},
		),
		ComparisonsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_completed_total",
				Help:      "Total number of competitor comparisons finished",
			},
			[]string{"status"},
		),
		ComparisonDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "comparison_duration_seconds",
				Help:      "Competitor comparison pipeline duration in seconds",
				Buckets:   []float64{5, 10, 30, 60, 120, 180, 300},
			},
		),
		CompetitorsAnalyzed: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "competitors_analyzed",
				Help:      "Number of competitor sites analyzed per comparison",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),

		// Temporal workflow metrics
		WorkflowsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_started_total",
				Help:      "Total number of workflows started",
			},
			[]string{"workflow_type"},
		),
		WorkflowsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_completed_total",
				Help:      "Total number of workflows completed",
			},
			[]string{"workflow_type", "status"},
		),
		ActivitiesExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activities_executed_total",
				Help:      "Total number of activities executed",
			},
			[]string{"activity_type", "status"},
		),

		// System metrics
		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_active",
				Help:      "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
	}

	return m
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAudit records a finished audit
func (m *Metrics) RecordAudit(mode, status string, duration time.Duration) {
	m.AuditsTotal.WithLabelValues(mode, status).Inc()
	m.AuditDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordHealthScore records a module or overall score
func (m *Metrics) RecordHealthScore(module string, score int) {
	m.HealthScores.WithLabelValues(module).Observe(float64(score))
}

// RecordProviderRequest records one AI provider attempt
func (m *Metrics) RecordProviderRequest(provider, status string, duration time.Duration) {
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordStaticFallback records the static fallback serving a response
func (m *Metrics) RecordStaticFallback() {
	m.StaticFallbacksTotal.Inc()
}

// RecordNLPTask records one NLP task outcome
func (m *Metrics) RecordNLPTask(task, status string) {
	m.NLPTasksTotal.WithLabelValues(task, status).Inc()
}

// RecordNLPCache records an NLP cache lookup
func (m *Metrics) RecordNLPCache(hit bool) {
	if hit {
		m.NLPCacheHits.Inc()
	} else {
		m.NLPCacheMisses.Inc()
	}
}

// RecordComparisonStart records a comparison pipeline start
func (m *Metrics) RecordComparisonStart() {
	m.ComparisonsStarted.Inc()
}

// RecordComparisonComplete records a finished comparison pipeline
func (m *Metrics) RecordComparisonComplete(status string, competitors int, duration time.Duration) {
	m.ComparisonsCompleted.WithLabelValues(status).Inc()
	m.ComparisonDuration.Observe(duration.Seconds())
	m.CompetitorsAnalyzed.Observe(float64(competitors))
}

// RecordWorkflowStart records workflow start
func (m *Metrics) RecordWorkflowStart(workflowType string) {
	m.WorkflowsStarted.WithLabelValues(workflowType).Inc()
}

// RecordWorkflowComplete records workflow completion
func (m *Metrics) RecordWorkflowComplete(workflowType, status string) {
	m.WorkflowsCompleted.WithLabelValues(workflowType, status).Inc()
}

// RecordActivityExecution records activity execution
func (m *Metrics) RecordActivityExecution(activityType, status string) {
	m.ActivitiesExecuted.WithLabelValues(activityType, status).Inc()
}

// HTTPMiddleware returns middleware for recording HTTP metrics
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsActive.Inc()
		defer m.HTTPRequestsActive.Dec()

		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		m.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Global metrics instance
var globalMetrics *Metrics

// InitMetrics initializes the global metrics instance
func InitMetrics(namespace string) *Metrics {
	globalMetrics = NewMetrics(namespace)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		globalMetrics = NewMetrics("webpulse")
	}
	return globalMetrics
}
