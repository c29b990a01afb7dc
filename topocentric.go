package inview

import (
	"math"
	"time"
)

// julianDate returns the Julian date of t.
func julianDate(t time.Time) float64 {
	return 2440587.5 + (float64(t.Unix())+float64(t.Nanosecond())/1e9)/secondsPerDay
}

// gmst returns the Greenwich Mean Sidereal Time of t in radians.
func gmst(t time.Time) float64 {
	jd := julianDate(t)
	c := (jd - j2000) / daysPerCentury

	gmstDeg := 280.46061837 +
		360.98564736629*(jd-j2000) +
		0.000387933*c*c -
		c*c*c/38710000.0

	gmstDeg = math.Mod(gmstDeg, 360.0)
	if gmstDeg < 0 {
		gmstDeg += 360.0
	}
	return gmstDeg * deg2rad
}

// observerECEF returns the WGS-84 Earth-fixed position of a geodetic
// location in km.
func observerECEF(loc GeodeticLocation) Vector {
	latRad := loc.LatitudeDeg * deg2rad
	lonRad := loc.LongitudeDeg * deg2rad
	altKm := loc.ElevationM / 1000.0

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)

	// Radius of curvature in the prime vertical
	e2 := f * (2.0 - f)
	n := re / math.Sqrt(1.0-e2*sinLat*sinLat)

	return Vector{
		X: (n + altKm) * cosLat * math.Cos(lonRad),
		Y: (n + altKm) * cosLat * math.Sin(lonRad),
		Z: (n*(1.0-e2) + altKm) * sinLat,
	}
}

// observerECI rotates the observer's Earth-fixed position into the inertial
// frame by the sidereal angle at t.
func observerECI(loc GeodeticLocation, t time.Time) Vector {
	ecef := observerECEF(loc)
	theta := gmst(t)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	return Vector{
		X: ecef.X*cosT - ecef.Y*sinT,
		Y: ecef.X*sinT + ecef.Y*cosT,
		Z: ecef.Z,
	}
}

// sezBasis returns the South, East and Zenith unit vectors of the observer's
// topocentric horizon frame expressed in ECI at t.
func sezBasis(loc GeodeticLocation, t time.Time) (s, e, z Vector) {
	latRad := loc.LatitudeDeg * deg2rad
	lst := gmst(t) + loc.LongitudeDeg*deg2rad

	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinLst, cosLst := math.Sin(lst), math.Cos(lst)

	s = Vector{sinLat * cosLst, sinLat * sinLst, -cosLat}
	e = Vector{-sinLst, cosLst, 0}
	z = Vector{cosLat * cosLst, cosLat * sinLst, sinLat}
	return s, e, z
}

// lookAngles returns the azimuth (degrees clockwise from true North,
// [0, 360)), elevation (degrees) and range (km) of an ECI position seen
// from loc at t.
func lookAngles(sat Vector, loc GeodeticLocation, t time.Time) (az, el, rangeKm float64) {
	rho := sat.Sub(observerECI(loc, t))
	rangeKm = rho.Norm()
	if rangeKm == 0 {
		return 0, 90, 0
	}

	s, e, z := sezBasis(loc, t)
	topS, topE, topZ := rho.Dot(s), rho.Dot(e), rho.Dot(z)

	el = math.Asin(clamp(topZ/rangeKm, -1, 1)) * rad2deg
	az = math.Atan2(topE, -topS) * rad2deg
	if az < 0 {
		az += 360.0
	}
	if az >= 360.0 {
		az -= 360.0
	}
	return az, el, rangeKm
}

// topocentricToECI is the inverse of lookAngles.
func topocentricToECI(loc GeodeticLocation, t time.Time, azDeg, elDeg, rangeKm float64) Vector {
	az, el := azDeg*deg2rad, elDeg*deg2rad
	s, e, z := sezBasis(loc, t)

	rho := s.Scale(-rangeKm * math.Cos(el) * math.Cos(az)).
		Add(e.Scale(rangeKm * math.Cos(el) * math.Sin(az))).
		Add(z.Scale(rangeKm * math.Sin(el)))
	return observerECI(loc, t).Add(rho)
}

// geodeticFromECI converts an ECI position at t to WGS-84 geodetic
// latitude, longitude (degrees) and altitude (km).
func geodeticFromECI(pos Vector, t time.Time) (lat, lon, alt float64) {
	e2 := f * (2.0 - f)

	lon = wrapLongitude(math.Atan2(pos.Y, pos.X) - gmst(t))
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)
	lat = math.Atan2(pos.Z, r)

	const maxIter = 10
	const tol = 1e-10
	for range maxIter {
		oldLat := lat
		sinLat := math.Sin(lat)
		c := 1.0 / math.Sqrt(1.0-e2*sinLat*sinLat)
		lat = math.Atan2(pos.Z+re*c*e2*sinLat, r)
		if math.Abs(lat-oldLat) < tol {
			break
		}
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := re / math.Sqrt(1.0-e2*sinLat*sinLat)
	if math.Abs(cosLat) < 1e-10 {
		alt = math.Abs(pos.Z) - re*math.Sqrt(1.0-e2)
	} else {
		alt = r/cosLat - n
	}
	return lat * rad2deg, lon * rad2deg, alt
}

func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon, twoPi)
	if lon > math.Pi {
		lon -= twoPi
	} else if lon < -math.Pi {
		lon += twoPi
	}
	return lon
}
