// Package metrics holds the Prometheus collectors of the profile server and
// the instrumentation for inbound and outbound HTTP.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"FacultyProfile/internal/crud"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	clientInFlightMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "faculty_profile",
		Name:      "http_client_in_flight_requests",
		Help:      "A gauge of in-flight requests being made against an HTTP API, by client.",
	}, []string{"client"})

	clientRequestCountMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faculty_profile",
		Name:      "http_client_requests_total",
		Help:      "A summary of requests made against an HTTP API, by client, status code, and request method.",
	}, []string{"client", "code", "method"})

	clientRequestTimeMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faculty_profile",
		Name:      "http_client_request_duration_seconds",
		Help:      "A histogram of request timing against an HTTP API, by client and request method.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"client", "method"})

	serverRequestCountMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faculty_profile",
		Name:      "http_requests_total",
		Help:      "Count of http requests handled, by route, response status code and HTTP method.",
	}, []string{"route", "code", "method"})

	serverRequestTimeMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faculty_profile",
		Name:      "http_requests_duration_seconds",
		Help:      "Histogram of time spent processing requests, by route and HTTP method.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"route", "method"})

	// MutationCount counts insert/update/delete attempts by outcome.
	MutationCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faculty_profile",
		Name:      "mutations_total",
		Help:      "Count of insert, update and delete calls against the profile backend, by resource and outcome.",
	}, []string{"resource", "action", "outcome"})
)

type mutationRecorder struct {
	next crud.Recorder
}

// CountMutations returns a crud.Recorder that counts every mutation in
// MutationCount and then hands it to next, if any.
func CountMutations(next crud.Recorder) crud.Recorder {
	return &mutationRecorder{next: next}
}

func (r *mutationRecorder) Record(ctx context.Context, m crud.Mutation) {
	outcome := "ok"
	if m.Err != nil {
		outcome = "failed"
	}
	MutationCount.WithLabelValues(m.Resource, string(m.Action), outcome).Inc()
	if r.next != nil {
		r.next.Record(ctx, m)
	}
}

type loggingRT struct {
	name       string
	log        *zap.Logger
	underlying http.RoundTripper
}

func (rt *loggingRT) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := rt.log.With(
		zap.String("client", rt.name),
		zap.String("method", req.Method),
		zap.String("uri", req.URL.String()),
	)
	res, err := rt.underlying.RoundTrip(req)
	if err != nil {
		log.Info("outgoing http request completed with error", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return res, errors.WithStack(err)
	}
	log.Debug("outgoing http request complete", zap.Duration("duration", time.Since(start)), zap.String("status", res.Status))
	return res, nil
}

// InstrumentRoundTripper wraps rt with request metrics and debug logging.
// A nil rt means http.DefaultTransport; a nil log disables logging.
func InstrumentRoundTripper(name string, rt http.RoundTripper, log *zap.Logger) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop()
	}
	ls := prometheus.Labels{"client": name}
	return promhttp.InstrumentRoundTripperInFlight(
		clientInFlightMetric.With(ls),
		promhttp.InstrumentRoundTripperDuration(
			clientRequestTimeMetric.MustCurryWith(ls),
			promhttp.InstrumentRoundTripperCounter(
				clientRequestCountMetric.MustCurryWith(ls),
				&loggingRT{name: name, log: log, underlying: rt})))
}

// Middleware records count and latency of every request by chi route
// pattern, so /conference/{id}/edit is one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		serverRequestCountMetric.WithLabelValues(route, strconv.Itoa(m.Code), r.Method).Inc()
		serverRequestTimeMetric.WithLabelValues(route, r.Method).Observe(m.Duration.Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
