package inview

import (
	"math"
	"time"
)

// Mathematical and physical constants
const (
	twoPi   = 2 * math.Pi
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi

	// WGS-84 Earth model constants
	re = 6378.137            // Earth's equatorial radius in km
	f  = 1.0 / 298.257223563 // Earth's flattening factor
	we = 7.292115e-5         // Earth's rotation rate in rad/s

	sunRadius        = 695700.0      // km, IAU 2015 nominal solar radius
	astronomicalUnit = 149597870.700 // km, IAU 2012
	speedOfLight     = 299792.458    // km/s
	j2000            = 2451545.0     // Julian date of 2000-01-01 12:00 UTC
	secondsPerDay    = 86400.0
	daysPerCentury   = 36525.0
)

// Scan cadences used by the visibility and illumination searches.
const (
	coarseStep          = time.Minute
	fineStep            = time.Second
	crossingSearchSteps = 60  // seconds searched back for a rise or set
	peakSearchSteps     = 120 // seconds searched back for the max elevation
	defaultStepSeconds  = 60
)
