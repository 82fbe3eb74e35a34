package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	evaluationsTotal     *prometheus.CounterVec
	stageFailuresTotal   *prometheus.CounterVec
	ocrDurationSeconds   *prometheus.HistogramVec
	evaluationCacheTotal *prometheus.CounterVec
	evaluationRetryTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gema_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gema_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gema_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gema_evaluations_total",
			Help: "Answer evaluations by outcome and answer type.",
		}, []string{"outcome", "answer_type"})

		stageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gema_evaluation_stage_failures_total",
			Help: "Evaluation failures by pipeline stage and failure kind.",
		}, []string{"stage", "kind"})

		ocrDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gema_ocr_duration_seconds",
			Help:    "Time spent recognizing handwritten answer images.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"recognizer"})

		evaluationCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gema_evaluation_cache_total",
			Help: "Evaluation cache lookups by result.",
		}, []string{"result"})

		evaluationRetryTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gema_evaluation_retries_total",
			Help: "Evaluation attempts repeated after a retryable failure.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			evaluationsTotal,
			stageFailuresTotal,
			ocrDurationSeconds,
			evaluationCacheTotal,
			evaluationRetryTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Evaluations counts finished evaluations, labelled outcome and answer_type.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// StageFailures counts failed evaluations, labelled stage and kind.
func StageFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return stageFailuresTotal
}

// OCRDuration observes recognizer latency.
func OCRDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return ocrDurationSeconds
}

// EvaluationCache counts cache hits and misses.
func EvaluationCache() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationCacheTotal
}

// EvaluationRetries counts repeated attempts.
func EvaluationRetries() prometheus.Counter {
	RegisterMetrics()
	return evaluationRetryTotal
}

// MetricsHandler serves the evaluator collectors on the Fiber scrape route.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
