// Package metrics exposes reconciliation telemetry to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/JonMunkholm/spregistry/internal/core"
)

const namespace = "spregistry"

// Recorder collects run metrics into its own registry.
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	runFailures   *prometheus.CounterVec
	runDuration   prometheus.Histogram
	submissions   *prometheus.CounterVec
	organizations *prometheus.CounterVec
	listings      prometheus.Counter
	notifications *prometheus.CounterVec
	lastSuccess   prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Recorder. Go runtime collectors are included when
// withRuntime is set.
func New(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed reconciliation runs.",
		}, []string{"dry_run"}),
		runFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Aborted reconciliation runs by stage.",
		}, []string{"stage"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of completed runs.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Processed submissions by outcome.",
		}, []string{"outcome"}),
		organizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "organizations_total",
			Help:      "Organizations created or refreshed.",
		}, []string{"change"}),
		listings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_added_total",
			Help:      "Storage providers added to the listing.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Issue notifications by result.",
		}, []string{"result"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed run.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		r.runs, r.runFailures, r.runDuration,
		r.submissions, r.organizations, r.listings,
		r.notifications, r.lastSuccess,
		r.httpRequests, r.httpDuration,
	)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RunCompleted records a finished run.
func (r *Recorder) RunCompleted(rep *core.RunReport) {
	r.runs.WithLabelValues(strconv.FormatBool(rep.DryRun)).Inc()
	r.runDuration.Observe(rep.Duration.Seconds())
	if rep.DryRun {
		return
	}

	r.submissions.WithLabelValues("accepted").Add(float64(rep.Accepted))
	r.submissions.WithLabelValues("rejected").Add(float64(rep.Rejected))
	r.organizations.WithLabelValues("created").Add(float64(rep.NewOrganizations))
	r.organizations.WithLabelValues("refreshed").Add(float64(rep.RefreshedOrganizations))
	r.listings.Add(float64(rep.NewListings))
	r.lastSuccess.Set(float64(rep.ProcessedAt.Unix()))
}

// RunFailed records a run aborted at stage.
func (r *Recorder) RunFailed(stage string) {
	r.runFailures.WithLabelValues(stage).Inc()
}

// NotificationSent records one notification attempt.
func (r *Recorder) NotificationSent(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	r.notifications.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware records request counts and latency per chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(sw.status)).Inc()
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Push sends the registry to a Pushgateway under job.
func (r *Recorder) Push(ctx context.Context, endpoint, job string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("pushgateway endpoint is required")
	}
	if strings.TrimSpace(job) == "" {
		return errors.New("pushgateway job is required")
	}
	return push.New(endpoint, job).Gatherer(r.registry).PushContext(ctx)
}

var _ core.Recorder = (*Recorder)(nil)
