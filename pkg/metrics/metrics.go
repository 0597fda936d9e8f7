// Package metrics exposes Prometheus collectors for wizard traffic.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const namespace = "formwizard"

// Collector groups the wizard collectors registered on one registry.
type Collector struct {
	completions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	gatherer    prometheus.Gatherer
}

// New creates the collectors and registers them on reg. When reg is also a
// Gatherer, Handler serves it; otherwise Handler serves the default gatherer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_completions_total",
				Help:      "Steps completed, by step route.",
			},
			[]string{"step"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Field validation failures, by step route, error key and validator type.",
			},
			[]string{"step", "key", "type"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "route"},
		),
		gatherer: prometheus.DefaultGatherer,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}

	for _, collector := range []prometheus.Collector{c.completions, c.failures, c.requests, c.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Subscribe counts completion and validation failure events.
func (c *Collector) Subscribe(events *wizard.Events) {
	events.On(wizard.EventComplete, func(_ wizard.Event, req *wizard.Request) {
		c.completions.WithLabelValues(stepLabel(req)).Inc()
	})
	events.On(wizard.EventValidationFailed, func(_ wizard.Event, req *wizard.Request) {
		route := stepLabel(req)
		for key, err := range req.Errors {
			if err == nil {
				continue
			}
			c.failures.WithLabelValues(route, key, err.Type).Inc()
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. Requests are labelled with
// the matched mux route template to keep cardinality bounded.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		c.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func stepLabel(req *wizard.Request) string {
	if req == nil || req.Options == nil {
		return ""
	}
	return req.Options.Route
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
