// Package metrics exposes Prometheus collectors for the cache, form relay and
// HTTP layer.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corporategifts/giftsite/pkg/forms"
	"github.com/corporategifts/giftsite/pkg/swr"
)

const namespace = "giftsite"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry    *prometheus.Registry
	lookups     *prometheus.CounterVec
	fetches     *prometheus.HistogramVec
	deliveries  *prometheus.CounterVec
	submissions *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New creates and registers every collector, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key family and outcome.",
		}, []string{"family", "outcome"}),
		fetches: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency by key family and result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family", "result"}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "deliveries_total",
			Help:      "Submission deliveries by sink and result.",
		}, []string{"sink", "result"}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Lookup implements swr.Observer.
func (m *Metrics) Lookup(key swr.Key, outcome swr.Outcome) {
	m.lookups.WithLabelValues(key.Family(), string(outcome)).Inc()
}

// Fetched implements swr.Observer.
func (m *Metrics) Fetched(key swr.Key, took time.Duration, err error) {
	m.fetches.WithLabelValues(key.Family(), result(err)).Observe(took.Seconds())
}

// Submission counts an intake outcome such as accepted, invalid or spam.
func (m *Metrics) Submission(kind forms.Kind, outcome string) {
	m.submissions.WithLabelValues(string(kind), outcome).Inc()
}

// InstrumentSink counts every delivery attempt made through s.
func (m *Metrics) InstrumentSink(s forms.Sink) forms.Sink {
	return &instrumentedSink{Sink: s, deliveries: m.deliveries}
}

type instrumentedSink struct {
	forms.Sink
	deliveries *prometheus.CounterVec
}

func (s *instrumentedSink) Deliver(ctx context.Context, sub *forms.Submission) error {
	err := s.Sink.Deliver(ctx, sub)
	s.deliveries.WithLabelValues(s.Name(), result(err)).Inc()
	return err
}

// Middleware records request latency labelled with the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Observe(time.Since(start).Seconds())
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

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
