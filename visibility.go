package inview

import (
	"log/slog"
	"math"
	"time"
)

// InviewWindow is a span during which the satellite is above the station's
// elevation mask.
type InviewWindow struct {
	Rise             time.Time // UTC
	Set              time.Time // UTC
	MaxElevation     float64   // degrees
	MaxElevationTime time.Time // UTC
}

// Duration returns Set - Rise.
func (w InviewWindow) Duration() time.Duration { return w.Set.Sub(w.Rise) }

// AzElRange is one look-angle sample.
type AzElRange struct {
	Time      time.Time // UTC
	Azimuth   float64   // degrees clockwise from true North, [0, 360)
	Elevation float64   // degrees above the local horizon
	Range     float64   // km
	RangeRate *float64  // km/s, positive moving away; nil when undefined
}

// EngineOption configures the visibility and solar engines.
type EngineOption func(*engineConfig)

type engineConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger. Engines log nothing by default.
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	c := engineConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// VisibilityEngine computes inviews and look-angle tables for one satellite
// over one ground station. It holds no mutable state and is safe for
// concurrent use when its Propagator is.
type VisibilityEngine struct {
	el     *TwoLineElement
	gs     *GroundStation
	p      Propagator
	logger *slog.Logger
}

// NewVisibilityEngine binds an element set, a station and a propagator built
// for that element set.
func NewVisibilityEngine(el *TwoLineElement, gs *GroundStation, p Propagator, opts ...EngineOption) *VisibilityEngine {
	c := newEngineConfig(opts)
	return &VisibilityEngine{
		el: el,
		gs: gs,
		p:  p,
		logger: c.logger.With(
			slog.Int("norad_id", el.SatelliteNumber()),
			slog.String("station", gs.Name()),
		),
	}
}

// GroundStation returns the station the engine observes from.
func (v *VisibilityEngine) GroundStation() *GroundStation { return v.gs }

// ElementSet returns the element set the engine propagates.
func (v *VisibilityEngine) ElementSet() *TwoLineElement { return v.el }

func (v *VisibilityEngine) state(t time.Time) (EphemerisPoint, error) {
	pt, err := propagate(v.p, v.el.SatelliteNumber(), t)
	if err != nil {
		v.logger.Warn("propagation failed", slog.Time("time", t), slog.Any("error", err))
	}
	return pt, err
}

func (v *VisibilityEngine) look(t time.Time) (az, el, rangeKm float64, err error) {
	pt, err := v.state(t)
	if err != nil {
		return 0, 0, 0, err
	}
	az, el, rangeKm = lookAngles(pt.Position, v.gs.Location(), t)
	return az, el, rangeKm, nil
}

func (v *VisibilityEngine) elevation(t time.Time) (float64, error) {
	_, el, _, err := v.look(t)
	return el, err
}

// Inviews returns the windows during which the satellite is strictly above
// the station's elevation mask, ordered by rise time.
//
// The span is scanned at one-minute steps (plus a final sample at end).
// Crossings are refined second by second, searching back at most one
// minute: the rise is the last second still below the mask, the set is the
// last second still above it. When elevation stops increasing, the peak is
// refined by a second-by-second search over the previous two minutes.
//
// A window already open at start rises exactly at start; one still open at
// end sets exactly at end. Passes shorter than the one-minute scan step can
// fall between samples and go undetected.
func (v *VisibilityEngine) Inviews(start, end Instant) ([]InviewWindow, error) {
	if !start.Before(end) {
		return nil, nil
	}
	s, e := start.Time(), end.Time()
	mask := v.gs.MinimumElevation()

	var (
		windows    []InviewWindow
		cur        InviewWindow
		up         bool
		increasing bool
	)
	closeWindow := func(set time.Time) {
		cur.Set = set
		if !cur.Set.After(cur.Rise) {
			v.logger.Debug("dropping degenerate window", slog.Time("rise", cur.Rise), slog.Time("set", cur.Set))
			return
		}
		v.logger.Debug("inview",
			slog.Time("rise", cur.Rise),
			slog.Time("set", cur.Set),
			slog.Float64("max_el", cur.MaxElevation),
		)
		windows = append(windows, cur)
	}
	openWindow := func(rise time.Time) {
		cur = InviewWindow{Rise: rise, MaxElevation: math.Inf(-1)}
		up, increasing = true, true
	}

	prev := s
	for t := s; ; {
		el, err := v.elevation(t)
		if err != nil {
			return nil, err
		}

		switch {
		case el > mask && !up:
			rise := s
			if t.After(s) {
				if rise, err = v.findCrossing(t, prev, mask, false); err != nil {
					return nil, err
				}
			}
			openWindow(rise)
		case el < mask && up:
			set, err := v.findCrossing(t, prev, mask, true)
			if err != nil {
				return nil, err
			}
			if increasing {
				if err := v.refinePeak(&cur, t); err != nil {
					return nil, err
				}
			}
			closeWindow(set)
			up, increasing = false, false
		}

		if el > mask {
			if el > cur.MaxElevation {
				cur.MaxElevation, cur.MaxElevationTime = el, t
			} else if increasing {
				// First sample after the peak
				increasing = false
				if err := v.refinePeak(&cur, t); err != nil {
					return nil, err
				}
			}
		}

		if !t.Before(e) {
			break
		}
		prev = t
		if t = t.Add(coarseStep); t.After(e) {
			t = e
		}
	}

	if up {
		closeWindow(e)
	}
	return windows, nil
}

// findCrossing searches back from t, one second at a time and never past
// floor, for the first second on the other side of the mask. Searching for a
// set (wasUp) stops on a second above the mask, searching for a rise stops
// on a second below it.
func (v *VisibilityEngine) findCrossing(t, floor time.Time, mask float64, wasUp bool) (time.Time, error) {
	exact := t
	for range crossingSearchSteps {
		if !exact.After(floor) {
			break
		}
		exact = exact.Add(-fineStep)
		el, err := v.elevation(exact)
		if err != nil {
			return time.Time{}, err
		}
		if (wasUp && el > mask) || (!wasUp && el < mask) {
			break
		}
	}
	return exact, nil
}

// refinePeak scans the seconds before t, up to two minutes back and never
// before the window's rise, for a higher elevation than the coarse maximum.
func (v *VisibilityEngine) refinePeak(w *InviewWindow, t time.Time) error {
	exact := t
	for range peakSearchSteps {
		exact = exact.Add(-fineStep)
		if exact.Before(w.Rise) {
			break
		}
		el, err := v.elevation(exact)
		if err != nil {
			return err
		}
		if el > w.MaxElevation {
			w.MaxElevation, w.MaxElevationTime = el, exact
		}
	}
	return nil
}

// LookAngles returns a single look-angle sample at t. The range rate is the
// instantaneous one, from the relative velocity of satellite and station.
func (v *VisibilityEngine) LookAngles(t Instant) (AzElRange, error) {
	tt := t.Time()
	pt, err := v.state(tt)
	if err != nil {
		return AzElRange{}, err
	}
	loc := v.gs.Location()
	az, el, rng := lookAngles(pt.Position, loc, tt)

	// Station velocity in ECI is Earth rotation about Z
	obs := observerECI(loc, tt)
	obsVel := Vector{X: -we * obs.Y, Y: we * obs.X}
	rho := pt.Position.Sub(obs)
	var rate float64
	if rng > 0 {
		rate = rho.Dot(pt.Velocity.Sub(obsVel)) / rng
	}

	return AzElRange{Time: tt, Azimuth: az, Elevation: el, Range: rng, RangeRate: &rate}, nil
}

// AzEls tabulates look angles from start to end inclusive every stepSeconds,
// regardless of visibility. A non-positive step is replaced by 60 seconds.
// The range rate of sample i > 0 is the finite difference of ranges with the
// previous sample; the first sample has none.
func (v *VisibilityEngine) AzEls(start, end Instant, stepSeconds int) ([]AzElRange, error) {
	var out []AzElRange
	err := v.step(start, end, stepSeconds, func(t time.Time) error {
		az, el, rng, err := v.look(t)
		if err != nil {
			return err
		}
		sample := AzElRange{Time: t, Azimuth: az, Elevation: el, Range: rng}
		if n := len(out); n > 0 {
			rate := (rng - out[n-1].Range) / t.Sub(out[n-1].Time).Seconds()
			sample.RangeRate = &rate
		}
		out = append(out, sample)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EphemerisTable tabulates inertial state vectors with the same stepping as
// AzEls.
func (v *VisibilityEngine) EphemerisTable(start, end Instant, stepSeconds int) ([]EphemerisPoint, error) {
	var out []EphemerisPoint
	err := v.step(start, end, stepSeconds, func(t time.Time) error {
		pt, err := v.state(t)
		if err != nil {
			return err
		}
		pt.Time = t
		out = append(out, pt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubpointTable tabulates the geodetic sub-point with the same stepping as
// AzEls.
func (v *VisibilityEngine) SubpointTable(start, end Instant, stepSeconds int) ([]GeodeticPoint, error) {
	var out []GeodeticPoint
	err := v.step(start, end, stepSeconds, func(t time.Time) error {
		gp, err := v.p.Subpoint(t)
		if err != nil {
			err = asPropagationError(err, v.el.SatelliteNumber(), t)
			v.logger.Warn("subpoint failed", slog.Time("time", t), slog.Any("error", err))
			return err
		}
		gp.Time = t
		out = append(out, gp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// step calls fn for start, start+step, ... while the instant is before
// end+step, so the sample at end is always produced.
func (v *VisibilityEngine) step(start, end Instant, stepSeconds int, fn func(time.Time) error) error {
	if !start.Before(end) {
		return nil
	}
	if stepSeconds <= 0 {
		v.logger.Debug("invalid step, using default", slog.Int("step_seconds", stepSeconds), slog.Int("default", defaultStepSeconds))
		stepSeconds = defaultStepSeconds
	}
	d := time.Duration(stepSeconds) * time.Second
	stop := end.Time().Add(d)
	for t := start.Time(); t.Before(stop); t = t.Add(d) {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}
