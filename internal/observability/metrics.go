package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/legendpaul/sportsapp/external/httpsource"
	"github.com/legendpaul/sportsapp/internal/platform/resilience"
	"github.com/legendpaul/sportsapp/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "sportsapp"

// Metrics holds the service collectors. Each instance owns its registry so
// tests and multiple app instances never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	sourceAttempts  *prometheus.CounterVec
	sourceDuration  *prometheus.HistogramVec
	datasetOutcomes *prometheus.CounterVec
	datasetRecords  *prometheus.GaugeVec
	evicted         *prometheus.CounterVec
	circuitChanges  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var (
	_ usecase.FetchRecorder    = (*Metrics)(nil)
	_ usecase.EvictionRecorder = (*Metrics)(nil)
)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sourceAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "source_attempts_total",
			Help:      "Upstream fetch attempts by dataset, source and result.",
		}, []string{"dataset", "source", "result"}),
		sourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "source_attempt_duration_seconds",
			Help:      "Upstream fetch latency including parsing.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"dataset", "source"}),
		datasetOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_outcomes_total",
			Help:      "Dataset fetch outcomes by provenance.",
		}, []string{"dataset", "provenance"}),
		datasetRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_records",
			Help:      "Records returned by the latest dataset fetch.",
		}, []string{"dataset"}),
		evicted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evicted_records_total",
			Help:      "Records removed by cleanup passes.",
		}, []string{"dataset"}),
		circuitChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "circuit_transitions_total",
			Help:      "Circuit breaker state transitions.",
		}, []string{"breaker", "to"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveSourceAttempt(dataset, sourceName string, err error, duration time.Duration) {
	m.sourceAttempts.WithLabelValues(dataset, sourceName, attemptResult(err)).Inc()
	m.sourceDuration.WithLabelValues(dataset, sourceName).Observe(duration.Seconds())
}

func (m *Metrics) ObserveOutcome(dataset string, provenance usecase.Provenance, records int) {
	m.datasetOutcomes.WithLabelValues(dataset, string(provenance)).Inc()
	m.datasetRecords.WithLabelValues(dataset).Set(float64(records))
}

func (m *Metrics) ObserveEviction(report usecase.EvictionReport) {
	m.evicted.WithLabelValues(usecase.DatasetFootball).Add(float64(report.FootballRemoved))
	m.evicted.WithLabelValues(usecase.DatasetUFC).Add(float64(report.UFCRemoved))
}

// ObserveCircuitTransition matches resilience.CircuitBreakerConfig.OnStateChange.
func (m *Metrics) ObserveCircuitTransition(name string, _, to resilience.CircuitState) {
	m.circuitChanges.WithLabelValues(name, string(to)).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, httpStatusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func attemptResult(err error) string {
	var statusErr *httpsource.HTTPStatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.As(err, &statusErr):
		return "http_status"
	case httpsource.IsTransient(err):
		return "transient"
	default:
		return "error"
	}
}

func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
