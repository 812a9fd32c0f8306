package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                         sync.Once
	metricsRouter                *chi.Mux
	httpRequestDurationHistogram *prometheus.HistogramVec
	webhookActivityCounter       *prometheus.CounterVec
	trackerPendingGauge          prometheus.Gauge
	trackerTimeoutCounter        prometheus.Counter
	trackerConfirmationCounter   prometheus.Counter
	queuePublishCounter          *prometheus.CounterVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	go func() {
		metricsAddr := fmt.Sprintf(":%d", metricsPort)
		err := http.ListenAndServe(metricsAddr, metricsRouter)
		if err != nil {
			log.Fatal().Err(err).Msgf("error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)

	webhookActivityCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_activity_total",
			Help: "Total number of webhook activities by processing outcome.",
		},
		[]string{"outcome"},
	)

	trackerPendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_pending_requests",
			Help: "Number of attestation requests currently in the pending state.",
		},
	)

	trackerTimeoutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_timeouts_total",
			Help: "Total number of attestation requests transitioned to timeout by the sweep.",
		},
	)

	trackerConfirmationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_confirmations_total",
			Help: "Total number of attestation requests confirmed.",
		},
	)

	queuePublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_publish_total",
			Help: "Total number of workflow execution publishes by queue and outcome.",
		},
		[]string{"queue", "outcome"},
	)

	prometheus.MustRegister(
		httpRequestDurationHistogram,
		webhookActivityCounter,
		trackerPendingGauge,
		trackerTimeoutCounter,
		trackerConfirmationCounter,
		queuePublishCounter,
	)
}

// StartHttpRequestDurationTimer starts a timer to measure http request handling duration.
func StartHttpRequestDurationTimer(endpoint string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Observe(duration)
	}
}

func RecordWebhookActivity(outcome string) {
	if webhookActivityCounter == nil {
		return
	}
	webhookActivityCounter.WithLabelValues(outcome).Inc()
}

func RecordTrackerPendingCount(count int) {
	if trackerPendingGauge == nil {
		return
	}
	trackerPendingGauge.Set(float64(count))
}

func RecordTrackerTimeouts(count int) {
	if trackerTimeoutCounter == nil {
		return
	}
	trackerTimeoutCounter.Add(float64(count))
}

func RecordTrackerConfirmation() {
	if trackerConfirmationCounter == nil {
		return
	}
	trackerConfirmationCounter.Inc()
}

func RecordQueuePublish(queueName string, outcome Outcome) {
	if queuePublishCounter == nil {
		return
	}
	queuePublishCounter.WithLabelValues(queueName, outcome.String()).Inc()
}
