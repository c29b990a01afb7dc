package inview

import "time"

// Look is a scripted topocentric direction.
type Look struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
}

// ScriptedPropagator is a deterministic Propagator driven by a function of
// time instead of an orbit model. It is meant for tests and simulations where
// exact crossing instants must be known in advance.
type ScriptedPropagator struct {
	position func(t time.Time) Vector
	failFrom time.Time
	failErr  error
}

// NewScriptedPropagator returns a propagator whose ECI position at t is
// position(t). Velocity is derived by central difference.
func NewScriptedPropagator(position func(t time.Time) Vector) *ScriptedPropagator {
	return &ScriptedPropagator{position: position}
}

// NewOverheadPropagator returns a propagator that places the satellite at the
// scripted look direction as seen from loc.
func NewOverheadPropagator(loc GeodeticLocation, look func(t time.Time) Look) *ScriptedPropagator {
	return NewScriptedPropagator(func(t time.Time) Vector {
		l := look(t)
		return topocentricToECI(loc, t, l.AzimuthDeg, l.ElevationDeg, l.RangeKm)
	})
}

// FailingFrom returns a copy of s that fails with err for every instant at
// or after t.
func (s *ScriptedPropagator) FailingFrom(t time.Time, err error) *ScriptedPropagator {
	c := *s
	c.failFrom, c.failErr = t, err
	return &c
}

func (s *ScriptedPropagator) check(t time.Time) error {
	if s.failErr != nil && !t.Before(s.failFrom) {
		return s.failErr
	}
	return nil
}

func (s *ScriptedPropagator) Propagate(t time.Time) (EphemerisPoint, error) {
	if err := s.check(t); err != nil {
		return EphemerisPoint{}, err
	}
	const h = 500 * time.Millisecond
	vel := s.position(t.Add(h)).Sub(s.position(t.Add(-h))).Scale(1 / (2 * h.Seconds()))
	return EphemerisPoint{Time: t, Position: s.position(t), Velocity: vel}, nil
}

func (s *ScriptedPropagator) Subpoint(t time.Time) (GeodeticPoint, error) {
	if err := s.check(t); err != nil {
		return GeodeticPoint{}, err
	}
	lat, lon, alt := geodeticFromECI(s.position(t), t)
	return GeodeticPoint{Time: t, LongitudeDeg: lon, LatitudeDeg: lat, AltitudeKm: alt}, nil
}
