package inview

import (
	"log/slog"
	"math"
	"sort"
	"time"
)

// SunState is the illumination of the satellite.
type SunState int

const (
	InSun SunState = iota
	Penumbra
	Umbra
)

func (s SunState) String() string {
	switch s {
	case InSun:
		return "sun"
	case Penumbra:
		return "penumbra"
	case Umbra:
		return "umbra"
	default:
		return "unknown"
	}
}

// SunWindow is a span of constant illumination. Windows are half-open,
// [Enter, Exit), except the last window of a scan, which is closed at the
// scan's end so every instant of [start, end] belongs to exactly one window.
type SunWindow struct {
	Enter time.Time // UTC
	Exit  time.Time // UTC
	State SunState
}

// SunWindows groups the windows of a span by state. Together they cover the
// span without gaps or overlaps.
type SunWindows struct {
	Sun      []SunWindow
	Penumbra []SunWindow
	Umbra    []SunWindow
}

// All returns every window in time order.
func (w SunWindows) All() []SunWindow {
	all := make([]SunWindow, 0, len(w.Sun)+len(w.Penumbra)+len(w.Umbra))
	all = append(all, w.Sun...)
	all = append(all, w.Penumbra...)
	all = append(all, w.Umbra...)
	sort.Slice(all, func(i, j int) bool { return all[i].Enter.Before(all[j].Enter) })
	return all
}

func (w *SunWindows) add(win SunWindow) {
	switch win.State {
	case InSun:
		w.Sun = append(w.Sun, win)
	case Penumbra:
		w.Penumbra = append(w.Penumbra, win)
	default:
		w.Umbra = append(w.Umbra, win)
	}
}

// MergeSunWindows concatenates the results of consecutive spans, such as
// day-sized chunks of a longer range, joining windows of the same state that
// meet at a chunk boundary.
func MergeSunWindows(chunks ...SunWindows) SunWindows {
	var all []SunWindow
	for _, c := range chunks {
		all = append(all, c.All()...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Enter.Before(all[j].Enter) })

	var merged []SunWindow
	for _, w := range all {
		if n := len(merged); n > 0 && merged[n-1].State == w.State && !w.Enter.After(merged[n-1].Exit) {
			if w.Exit.After(merged[n-1].Exit) {
				merged[n-1].Exit = w.Exit
			}
			continue
		}
		merged = append(merged, w)
	}

	var out SunWindows
	for _, w := range merged {
		out.add(w)
	}
	return out
}

// SolarEngine classifies the illumination of one satellite with a conical
// Earth shadow model and a low-precision solar ephemeris.
type SolarEngine struct {
	el     *TwoLineElement
	p      Propagator
	logger *slog.Logger
}

// NewSolarEngine binds an element set and a propagator built for it.
func NewSolarEngine(el *TwoLineElement, p Propagator, opts ...EngineOption) *SolarEngine {
	c := newEngineConfig(opts)
	return &SolarEngine{
		el:     el,
		p:      p,
		logger: c.logger.With(slog.Int("norad_id", el.SatelliteNumber())),
	}
}

// SunPosition returns the geocentric position of the Sun in km, in the
// mean equatorial frame of date. It follows Meeus, Astronomical Algorithms,
// chapter 25 (low accuracy, about 0.01 degree).
func SunPosition(t Instant) Vector {
	tc := (julianDate(t.Time()) - j2000) / daysPerCentury

	eps0 := (23.0 + 26.0/60.0 + 21.448/3600.0 -
		(46.8150*tc+0.00059*tc*tc-0.001813*tc*tc*tc)/3600.0) * deg2rad // (22.2)
	l0 := 280.46646 + 36000.76983*tc + 0.0003032*tc*tc // (25.2)
	m := 357.52911 + 35999.05029*tc - 0.0001537*tc*tc  // (25.3)
	e := 0.016708634 - 0.000042037*tc - 0.0000001267*tc*tc

	mRad := m * deg2rad
	c := (1.914602-0.004817*tc-0.000014*tc*tc)*math.Sin(mRad) +
		(0.019993-0.000101*tc)*math.Sin(2*mRad) +
		0.000289*math.Sin(3*mRad)

	trueLon := (l0 + c) * deg2rad
	nu := (m + c) * deg2rad
	r := 1.000001018 * (1 - e*e) / (1 + e*math.Cos(nu)) // (25.5), AU

	return Vector{
		X: math.Cos(trueLon),
		Y: math.Cos(eps0) * math.Sin(trueLon),
		Z: math.Sin(eps0) * math.Sin(trueLon),
	}.Scale(r * astronomicalUnit)
}

// SunPosition returns the geocentric position of the Sun at t.
func (s *SolarEngine) SunPosition(t Instant) Vector { return SunPosition(t) }

// classifyPosition applies the shadow cone test to a satellite ECI position
// and a Sun position.
func classifyPosition(sat, sun Vector) SunState {
	satSun := sun.Sub(sat)
	rhoE := sat.Norm()
	rhoS := satSun.Norm()

	thetaE := math.Asin(clamp(re/rhoE, -1, 1))
	thetaS := math.Asin(clamp(sunRadius/rhoS, -1, 1))
	theta := math.Acos(clamp(-sat.Dot(satSun)/(rhoE*rhoS), -1, 1))

	switch {
	case theta > thetaE+thetaS:
		return InSun
	case thetaE > thetaS && theta < thetaE-thetaS:
		return Umbra
	default:
		return Penumbra
	}
}

// Classify returns the illumination state at t.
func (s *SolarEngine) Classify(t Instant) (SunState, error) {
	return s.classify(t)
}

func (s *SolarEngine) classify(t Instant) (SunState, error) {
	pt, err := propagate(s.p, s.el.SatelliteNumber(), t.Time())
	if err != nil {
		s.logger.Warn("propagation failed", slog.Time("time", t.Time()), slog.Any("error", err))
		return 0, err
	}
	return classifyPosition(pt.Position, SunPosition(t)), nil
}

// SunWindows scans [start, end] second by second and returns the windows of
// each illumination state. Each transition second opens the new window; the
// window still open at end is closed there and includes end. The cost is
// linear in the length of the span, so callers should split multi-day
// ranges into days and join them with MergeSunWindows.
func (s *SolarEngine) SunWindows(start, end Instant) (SunWindows, error) {
	var out SunWindows
	if !start.Before(end) {
		return out, nil
	}

	state, err := s.classify(start)
	if err != nil {
		return SunWindows{}, err
	}
	cur := SunWindow{Enter: start.Time(), State: state}

	for t := start.Add(fineStep); t.Before(end); t = t.Add(fineStep) {
		now, err := s.classify(t)
		if err != nil {
			return SunWindows{}, err
		}
		if now != cur.State {
			cur.Exit = t.Time()
			out.add(cur)
			s.logger.Debug("illumination change", slog.Time("time", t.Time()), slog.String("state", now.String()))
			cur = SunWindow{Enter: t.Time(), State: now}
		}
	}
	cur.Exit = end.Time()
	out.add(cur)
	return out, nil
}
