package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentiment_api"

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	predictions       *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	inferenceErrors   *prometheus.CounterVec
	inferenceInFlight prometheus.Gauge
	cacheLookups      *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions returned by sentiment label.",
		}, []string{"sentiment"}),
		inferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Tokenize plus forward pass latency by backend.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"backend"}),
		inferenceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_errors_total",
			Help:      "Failed inferences by backend and reason.",
		}, []string{"backend", "reason"}),
		inferenceInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inference_in_flight",
			Help:      "Inferences currently holding a concurrency slot.",
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObservePrediction counts a returned label
func (m *Metrics) ObservePrediction(sentiment string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(sentiment).Inc()
}

// ObserveInference records the latency of one inference
func (m *Metrics) ObserveInference(backend string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inferenceDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// InferenceFailed counts a failed inference
func (m *Metrics) InferenceFailed(backend, reason string) {
	if m == nil {
		return
	}
	m.inferenceErrors.WithLabelValues(backend, reason).Inc()
}

// InferenceStarted marks a slot as taken and returns the func releasing it
func (m *Metrics) InferenceStarted() func() {
	if m == nil {
		return func() {}
	}
	m.inferenceInFlight.Inc()
	return m.inferenceInFlight.Dec
}

// ObserveCache counts a cache lookup result
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
