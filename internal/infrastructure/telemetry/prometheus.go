package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carehours"

var (
	// Registry holds the application's Prometheus collectors
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Total number of scheduled job runs.",
	}, []string{"job", "success"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_run_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"job"})

	emailsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "email",
		Name:      "processed_total",
		Help:      "Queued emails processed by the drainer, by outcome.",
	}, []string{"outcome"})

	permissionDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "permission_denials_total",
		Help:      "Requests refused for missing permissions, by required permission.",
	}, []string{"permission"})

	emailQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "email",
		Name:      "queue_depth",
		Help:      "Email queue rows per status.",
	}, []string{"status"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		jobRuns,
		jobDuration,
		emailsProcessed,
		emailQueueDepth,
		permissionDenials,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// MetricsHandler exposes the registry in the Prometheus text format
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// HTTPRequestStarted tracks an in-flight request and returns a function that
// records its outcome
func HTTPRequestStarted() func(method, route string, status int) {
	httpInFlight.Inc()
	start := time.Now()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordJobRun records a scheduled job execution
func RecordJobRun(job string, success bool, d time.Duration) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Email drain outcomes
const (
	EmailOutcomeSent    = "sent"
	EmailOutcomeRetried = "retried"
	EmailOutcomeFailed  = "failed"
)

// RecordEmailOutcome counts n emails finishing with outcome
func RecordEmailOutcome(outcome string, n int) {
	if n > 0 {
		emailsProcessed.WithLabelValues(outcome).Add(float64(n))
	}
}

// SetEmailQueueDepth publishes the queue depth per status
func SetEmailQueueDepth(depth map[string]int64) {
	for status, n := range depth {
		emailQueueDepth.WithLabelValues(status).Set(float64(n))
	}
}

// RecordPermissionDenied counts a request refused for lacking permission
func RecordPermissionDenied(permission string) {
	permissionDenials.WithLabelValues(permission).Inc()
}
