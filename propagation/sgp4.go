// Package propagation adapts SGP4 implementations to inview.Propagator.
package propagation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/akhenakh/inview"
)

// Plausible geocentric radius of a propagated state, in km. Anything outside
// is a numerically failed or decayed orbit.
const (
	minRadius = 6200.0
	maxRadius = 50000.0
)

// Gravity selects the geopotential constants used by SGP4.
type Gravity int

const (
	WGS72 Gravity = iota
	WGS84
)

func (g Gravity) String() string {
	if g == WGS84 {
		return "wgs84"
	}
	return "wgs72"
}

func (g Gravity) constants() satellite.Gravity {
	if g == WGS84 {
		return satellite.GravityWGS84
	}
	return satellite.GravityWGS72
}

// SGP4 propagates one satellite with go-satellite. satellite.Satellite is
// passed by value on every call, so an SGP4 is safe for concurrent use.
type SGP4 struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4 is an inview.Constructor using WGS-72 constants, the ones element
// sets are fitted with.
func NewSGP4(satelliteID int, line1, line2 string) (inview.Propagator, error) {
	return newSGP4(satelliteID, line1, line2, WGS72)
}

// Constructor returns an inview.Constructor for the gravity model.
func (g Gravity) Constructor() inview.Constructor {
	return func(satelliteID int, line1, line2 string) (inview.Propagator, error) {
		return newSGP4(satelliteID, line1, line2, g)
	}
}

func newSGP4(satelliteID int, line1, line2 string, g Gravity) (*SGP4, error) {
	// go-satellite calls log.Fatal on lines it cannot parse, so they are
	// fully validated first.
	el, err := inview.ParseElementSet("", line1, line2)
	if err != nil {
		return nil, err
	}
	if el.SatelliteNumber() != satelliteID {
		return nil, fmt.Errorf("element set is for satellite %d, not %d", el.SatelliteNumber(), satelliteID)
	}

	sat := satellite.TLEToSat(el.Line1(), el.Line2(), g.constants())
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for satellite %d: code=%d %s", satelliteID, sat.Error, sat.ErrorStr)
	}
	return &SGP4{sat: sat, noradID: satelliteID}, nil
}

// ByName returns the constructor configured by name: "sgp4" or "wgs72" (the
// default when empty), or "wgs84".
func ByName(name string) (inview.Constructor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sgp4", "wgs72":
		return NewSGP4, nil
	case "wgs84":
		return WGS84.Constructor(), nil
	default:
		return nil, fmt.Errorf("unknown propagator %q", name)
	}
}

func (p *SGP4) Propagate(t time.Time) (inview.EphemerisPoint, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, minute, sec)
	if err := p.check(pos); err != nil {
		return inview.EphemerisPoint{}, &inview.PropagationError{SatelliteNumber: p.noradID, Time: t, Err: err}
	}
	return inview.EphemerisPoint{
		Time:     t,
		Position: inview.Vector{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: inview.Vector{X: vel.X, Y: vel.Y, Z: vel.Z},
	}, nil
}

func (p *SGP4) Subpoint(t time.Time) (inview.GeodeticPoint, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	pos, _ := satellite.Propagate(p.sat, year, int(month), day, hour, minute, sec)
	if err := p.check(pos); err != nil {
		return inview.GeodeticPoint{}, &inview.PropagationError{SatelliteNumber: p.noradID, Time: t, Err: err}
	}

	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, minute, sec))
	alt, _, ll := satellite.ECIToLLA(pos, gmst)
	return inview.GeodeticPoint{
		Time:         t,
		LongitudeDeg: wrap180(ll.Longitude * 180 / math.Pi),
		LatitudeDeg:  ll.Latitude * 180 / math.Pi,
		AltitudeKm:   alt,
	}, nil
}

// check detects failures from the output, since go-satellite does not
// report SGP4 error codes from Propagate.
func (p *SGP4) check(pos satellite.Vector3) error {
	for _, v := range []float64{pos.X, pos.Y, pos.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("sgp4 output is NaN/Inf")
		}
	}
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if r < minRadius || r > maxRadius {
		return fmt.Errorf("implausible position magnitude %.1f km", r)
	}
	return nil
}

func wrap180(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
