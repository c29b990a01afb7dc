package inview

import (
	"errors"
	"fmt"
	"time"
)

// EphemerisPoint is an inertial state vector.
type EphemerisPoint struct {
	Time     time.Time
	Position Vector // km
	Velocity Vector // km/s
}

// GeodeticPoint is the satellite sub-point.
type GeodeticPoint struct {
	Time         time.Time
	LongitudeDeg float64
	LatitudeDeg  float64
	AltitudeKm   float64
}

// Propagator produces the state of one satellite at arbitrary UTC instants.
// Implementations must be safe to call repeatedly with the same instant and
// return identical results.
type Propagator interface {
	Propagate(t time.Time) (EphemerisPoint, error)
	Subpoint(t time.Time) (GeodeticPoint, error)
}

// Constructor builds a Propagator from the element lines of one satellite.
type Constructor func(satelliteID int, line1, line2 string) (Propagator, error)

// NewPropagator binds a propagator built by c to the element set.
func NewPropagator(c Constructor, el *TwoLineElement) (Propagator, error) {
	if c == nil || el == nil {
		return nil, errors.New("constructor and element set are required")
	}
	p, err := c(el.SatelliteNumber(), el.Line1(), el.Line2())
	if err != nil {
		return nil, fmt.Errorf("building propagator for satellite %d: %w", el.SatelliteNumber(), err)
	}
	return p, nil
}

// propagate calls p and tags any failure as a PropagationError.
func propagate(p Propagator, satNum int, t time.Time) (EphemerisPoint, error) {
	pt, err := p.Propagate(t)
	if err != nil {
		return EphemerisPoint{}, asPropagationError(err, satNum, t)
	}
	return pt, nil
}

func asPropagationError(err error, satNum int, t time.Time) error {
	var pe *PropagationError
	if errors.As(err, &pe) {
		return err
	}
	return &PropagationError{SatelliteNumber: satNum, Time: t, Err: err}
}
