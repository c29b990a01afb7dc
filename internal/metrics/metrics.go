// Package metrics exposes Prometheus instrumentation for engine queries.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query kinds.
const (
	KindInviews = "inviews"
	KindAzEls   = "azels"
	KindSun     = "sun"
	KindLookup  = "lookup"
)

// Collector bundles the metrics recorded by batch runs.
type Collector struct {
	gatherer prometheus.Gatherer

	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Windows       *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, the default registry when
// nil. Registering twice against the same registry reuses the collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inview_queries_total",
		Help: "Engine queries, labeled by kind and outcome (ok or error).",
	}, []string{"kind", "outcome"}), "inview_queries_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inview_query_duration_seconds",
		Help:    "Engine query latency in seconds.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"}), "inview_query_duration_seconds")
	if err != nil {
		return nil, err
	}

	windows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inview_windows_total",
		Help: "Windows found, labeled by kind (inview, sun, penumbra, umbra).",
	}, []string{"kind"}), "inview_windows_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Queries:       queries,
		QueryDuration: durations,
		Windows:       windows,
	}, nil
}

// Observe records one query. A nil Collector records nothing.
func (c *Collector) Observe(kind string, started time.Time, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Queries.WithLabelValues(kind, outcome).Inc()
	c.QueryDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// AddWindows counts n windows of the given kind.
func (c *Collector) AddWindows(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Windows.WithLabelValues(kind).Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
