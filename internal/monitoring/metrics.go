package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricPredictionsTotal      = "predictions_total"
	MetricPredictionProbability = "prediction_probability"
	MetricPredictionDuration    = "prediction_duration_seconds"
	MetricCorpusPapers          = "corpus_papers"
	MetricCorpusReloadsTotal    = "corpus_reloads_total"
	MetricRateLimitBlocked      = "rate_limit_blocked_total"
	MetricRateLimitRedisErrors  = "rate_limit_redis_errors_total"
	MetricPaymentOrdersTotal    = "payment_orders_total"
)

// Metrics holds the prometheus collectors of the service. All methods are
// safe for concurrent use.
type Metrics struct {
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	predictionsTotal      *prometheus.CounterVec
	predictionProbability prometheus.Histogram
	predictionDuration    prometheus.Histogram
	corpusPapers          *prometheus.GaugeVec
	corpusReloads         *prometheus.CounterVec
	rateLimitBlocked      *prometheus.CounterVec
	rateLimitRedisErrors  prometheus.Counter
	paymentOrders         *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path", "status"},
		),
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPredictionsTotal,
				Help: "Total number of predictions by rule and ranking method",
			},
			[]string{"rule", "method"},
		),
		predictionProbability: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPredictionProbability,
				Help:    "Distribution of predicted acceptance probabilities",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
			},
		),
		predictionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPredictionDuration,
				Help:    "Time spent scoring and ranking one prediction",
				Buckets: prometheus.ExponentialBuckets(0.00001, 10, 6),
			},
		),
		corpusPapers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricCorpusPapers,
				Help: "Number of papers loaded per corpus year",
			},
			[]string{"year", "set"},
		),
		corpusReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCorpusReloadsTotal,
				Help: "Corpus reload attempts by result",
			},
			[]string{"result"},
		),
		rateLimitBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitBlocked,
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),
		rateLimitRedisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitRedisErrors,
				Help: "Redis errors during rate limiting (in-memory fallback used)",
			},
		),
		paymentOrders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPaymentOrdersTotal,
				Help: "Payment order transitions by resulting status",
			},
			[]string{"status"},
		),
	}
}

// Collectors returns all collectors owned by Metrics
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.predictionsTotal,
		m.predictionProbability,
		m.predictionDuration,
		m.corpusPapers,
		m.corpusReloads,
		m.rateLimitBlocked,
		m.rateLimitRedisErrors,
		m.paymentOrders,
	}
}

// Register registers all collectors with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus everything in m
func NewRegistry(m *Metrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Handler serves the exposition format for reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	labels := prometheus.Labels{"method": method, "path": path, "status": status}
	m.httpRequestsTotal.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(seconds)
}

// ObservePrediction records one prediction outcome
func (m *Metrics) ObservePrediction(rule, method string, probability, seconds float64) {
	m.predictionsTotal.WithLabelValues(rule, method).Inc()
	m.predictionProbability.Observe(probability)
	m.predictionDuration.Observe(seconds)
}

// SetCorpusSize publishes the paper counts of one year
func (m *Metrics) SetCorpusSize(year string, total, accepted int) {
	m.corpusPapers.WithLabelValues(year, "all").Set(float64(total))
	m.corpusPapers.WithLabelValues(year, "accepted").Set(float64(accepted))
}

// ResetCorpusSizes drops all per-year gauges, used before publishing a reload
func (m *Metrics) ResetCorpusSizes() {
	m.corpusPapers.Reset()
}

// IncCorpusReload counts a reload attempt; result is "success" or "failure"
func (m *Metrics) IncCorpusReload(result string) {
	m.corpusReloads.WithLabelValues(result).Inc()
}

// IncRateLimitBlocked counts a rejected request
func (m *Metrics) IncRateLimitBlocked(endpoint string) {
	m.rateLimitBlocked.WithLabelValues(endpoint).Inc()
}

// IncRateLimitRedisError counts a redis failure during a limit check
func (m *Metrics) IncRateLimitRedisError() {
	m.rateLimitRedisErrors.Inc()
}

// IncPaymentOrder counts an order reaching status
func (m *Metrics) IncPaymentOrder(status string) {
	m.paymentOrders.WithLabelValues(status).Inc()
}
