// Package batch runs visibility and illumination queries for many
// satellite and ground station pairs concurrently.
package batch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/akhenakh/inview"
	"github.com/akhenakh/inview/internal/metrics"
	"github.com/akhenakh/inview/propagation"
)

const tracerName = "github.com/akhenakh/inview/batch"

// Sun windows are computed in chunks of this size and merged.
const sunChunk = 24 * time.Hour

// Pair is one satellite seen from one station.
type Pair struct {
	Satellite *inview.TwoLineElement
	Station   *inview.GroundStation
}

// Pairs returns the cross product of satellites and stations.
func Pairs(sats []*inview.TwoLineElement, stations []*inview.GroundStation) []Pair {
	out := make([]Pair, 0, len(sats)*len(stations))
	for _, s := range sats {
		for _, gs := range stations {
			out = append(out, Pair{Satellite: s, Station: gs})
		}
	}
	return out
}

// Request selects what is computed for every pair over [Start, End].
type Request struct {
	Start, End  inview.Instant
	StepSeconds int
	AzEls       bool
	Sun         bool
}

// Result holds the outcome of one pair. A non-nil Err means the pair failed
// and the other fields are empty.
type Result struct {
	Pair    Pair
	Inviews []inview.InviewWindow
	AzEls   []inview.AzElRange
	Sun     *inview.SunWindows
	Err     error
}

// Option configures a Runner.
type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithConstructor sets how propagators are built, SGP4 by default.
func WithConstructor(c inview.Constructor) Option {
	return func(r *Runner) {
		if c != nil {
			r.constructor = c
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// Runner processes pairs with bounded parallelism. The failure of one pair
// never affects the others.
type Runner struct {
	workers     int
	constructor inview.Constructor
	metrics     *metrics.Collector
	tracer      trace.Tracer
	logger      *slog.Logger
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workers:     4,
		constructor: propagation.NewSGP4,
		tracer:      otel.Tracer(tracerName),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run returns one Result per pair, in the order of pairs. Cancellation is
// observed between pairs: pairs not started when ctx is done carry its
// error, and Run returns it as well.
func (r *Runner) Run(ctx context.Context, pairs []Pair, req Request) ([]Result, error) {
	results := make([]Result, len(pairs))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, p := range pairs {
		results[i].Pair = p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i] = r.runPair(ctx, p, req)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (r *Runner) runPair(ctx context.Context, p Pair, req Request) Result {
	res := Result{Pair: p}
	_, span := r.tracer.Start(ctx, "inview.pair", trace.WithAttributes(
		attribute.Int("norad_id", p.Satellite.SatelliteNumber()),
		attribute.String("station", p.Station.Name()),
	))
	defer span.End()

	logger := r.logger.With(
		slog.Int("norad_id", p.Satellite.SatelliteNumber()),
		slog.String("station", p.Station.Name()),
	)
	fail := func(err error) Result {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("pair failed", slog.Any("error", err))
		return Result{Pair: p, Err: err}
	}

	prop, err := inview.NewPropagator(r.constructor, p.Satellite)
	if err != nil {
		return fail(err)
	}
	v := inview.NewVisibilityEngine(p.Satellite, p.Station, prop, inview.WithLogger(logger))

	started := time.Now()
	res.Inviews, err = v.Inviews(req.Start, req.End)
	r.metrics.Observe(metrics.KindInviews, started, err)
	if err != nil {
		return fail(err)
	}
	r.metrics.AddWindows("inview", len(res.Inviews))
	span.SetAttributes(attribute.Int("inviews", len(res.Inviews)))

	if req.AzEls {
		started = time.Now()
		res.AzEls, err = v.AzEls(req.Start, req.End, req.StepSeconds)
		r.metrics.Observe(metrics.KindAzEls, started, err)
		if err != nil {
			return fail(err)
		}
	}

	if req.Sun {
		started = time.Now()
		sun, err := sunWindows(inview.NewSolarEngine(p.Satellite, prop, inview.WithLogger(logger)), req.Start, req.End)
		r.metrics.Observe(metrics.KindSun, started, err)
		if err != nil {
			return fail(err)
		}
		r.metrics.AddWindows("sun", len(sun.Sun))
		r.metrics.AddWindows("penumbra", len(sun.Penumbra))
		r.metrics.AddWindows("umbra", len(sun.Umbra))
		res.Sun = &sun
	}

	logger.Debug("pair done", slog.Int("inviews", len(res.Inviews)))
	return res
}

// sunWindows scans [start, end] one chunk at a time.
func sunWindows(e *inview.SolarEngine, start, end inview.Instant) (inview.SunWindows, error) {
	var chunks []inview.SunWindows
	for s := start; s.Before(end); s = s.Add(sunChunk) {
		stop := s.Add(sunChunk)
		if end.Before(stop) {
			stop = end
		}
		w, err := e.SunWindows(s, stop)
		if err != nil {
			return inview.SunWindows{}, err
		}
		chunks = append(chunks, w)
	}
	return inview.MergeSunWindows(chunks...), nil
}
