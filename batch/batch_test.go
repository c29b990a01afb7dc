package batch

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/akhenakh/inview"
	"github.com/akhenakh/inview/internal/metrics"
)

const (
	issLine1 = "1 25544U 98067A   25025.00048859  .00033214  00000+0  57704-3 0  9996"
	issLine2 = "2 25544  51.6377 296.2827 0003104 141.8447 313.9175 15.50506992492954"
	// Same orbit under another catalog number, scripted to fail.
	decayedLine1 = "1 43017U 17071Q   25025.00048859  .00033214  00000+0  57704-3 0  9997"
	decayedLine2 = "2 43017  51.6377 296.2827 0003104 141.8447 313.9175 15.50506992492959"
)

var (
	start   = time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	station = inview.NewGroundStation("McDonald Observatory",
		inview.GeodeticLocation{LatitudeDeg: 30.6715, LongitudeDeg: -104.0227, ElevationM: 2070}, 10)
	errDecayed = errors.New("decayed")
)

// scripted passes 25544 overhead once, 30 minutes in, and fails every
// other satellite.
func scripted(id int, _, _ string) (inview.Propagator, error) {
	peak := start.Add(30 * time.Minute)
	p := inview.NewOverheadPropagator(station.Location(), func(t time.Time) inview.Look {
		dt := t.Sub(peak).Seconds()
		return inview.Look{AzimuthDeg: 135, ElevationDeg: math.Max(-10, 40-0.1*math.Abs(dt)), RangeKm: 1000}
	})
	if id != 25544 {
		return p.FailingFrom(start, errDecayed), nil
	}
	return p, nil
}

func mustParse(t *testing.T, l1, l2 string) *inview.TwoLineElement {
	t.Helper()
	el, err := inview.ParseElementSet("", l1, l2)
	if err != nil {
		t.Fatalf("ParseElementSet: %v", err)
	}
	return el
}

func TestRunIsolatesFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r := NewRunner(
		WithWorkers(2),
		WithConstructor(scripted),
		WithMetrics(collector),
		WithTracerProvider(tp),
	)
	sats := []*inview.TwoLineElement{mustParse(t, issLine1, issLine2), mustParse(t, decayedLine1, decayedLine2)}
	req := Request{
		Start:       inview.FromAnyTimezone(start),
		End:         inview.FromAnyTimezone(start.Add(time.Hour)),
		StepSeconds: 300,
		AzEls:       true,
		Sun:         true,
	}

	results, err := r.Run(context.Background(), Pairs(sats, []*inview.GroundStation{station}), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	ok := results[0]
	if ok.Err != nil {
		t.Fatalf("healthy pair failed: %v", ok.Err)
	}
	if len(ok.Inviews) != 1 || len(ok.AzEls) != 13 || ok.Sun == nil || len(ok.Sun.All()) == 0 {
		t.Errorf("healthy pair = %d inviews, %d azels, sun %v", len(ok.Inviews), len(ok.AzEls), ok.Sun)
	}

	bad := results[1]
	if !errors.Is(bad.Err, inview.ErrPropagation) || !errors.Is(bad.Err, errDecayed) {
		t.Errorf("failing pair error = %v", bad.Err)
	}
	if bad.Inviews != nil || bad.Pair.Satellite.SatelliteNumber() != 43017 {
		t.Errorf("failing pair result = %+v", bad)
	}

	if got := testutil.ToFloat64(collector.Queries.WithLabelValues(metrics.KindInviews, "ok")); got != 1 {
		t.Errorf("ok inview queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Queries.WithLabelValues(metrics.KindInviews, "error")); got != 1 {
		t.Errorf("failed inview queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Windows.WithLabelValues("inview")); got != 1 {
		t.Errorf("inview windows = %v, want 1", got)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	var failed int
	for _, s := range spans {
		if s.Status().Code == codes.Error {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("%d spans marked as errors, want 1", failed)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(WithConstructor(scripted))
	pairs := Pairs([]*inview.TwoLineElement{mustParse(t, issLine1, issLine2)}, []*inview.GroundStation{station, inview.Wallops()})
	results, err := r.Run(ctx, pairs, Request{
		Start: inview.FromAnyTimezone(start),
		End:   inview.FromAnyTimezone(start.Add(time.Hour)),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	for i, res := range results {
		if !errors.Is(res.Err, context.Canceled) || res.Pair.Station == nil {
			t.Errorf("result %d = %+v", i, res)
		}
	}
}

func TestPairs(t *testing.T) {
	sats := []*inview.TwoLineElement{mustParse(t, issLine1, issLine2), mustParse(t, decayedLine1, decayedLine2)}
	stations := []*inview.GroundStation{station, inview.Wallops(), inview.Morehead()}
	pairs := Pairs(sats, stations)
	if len(pairs) != 6 {
		t.Fatalf("got %d pairs, want 6", len(pairs))
	}
	if pairs[4].Satellite != sats[1] || pairs[4].Station != stations[1] {
		t.Errorf("unexpected pair order")
	}
}
