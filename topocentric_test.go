package inview

import (
	"math"
	"testing"
	"time"
)

// McDonald Observatory, Texas
var mcDonald = GeodeticLocation{LatitudeDeg: 30.6715, LongitudeDeg: -104.0227, ElevationM: 2070}

func TestGMSTAtJ2000(t *testing.T) {
	j2000Time := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if jd := julianDate(j2000Time); math.Abs(jd-j2000) > 1e-9 {
		t.Fatalf("julianDate(J2000) = %.9f, want %.1f", jd, j2000)
	}
	want := 280.46061837 * deg2rad
	if got := gmst(j2000Time); math.Abs(got-want) > 1e-9 {
		t.Errorf("gmst(J2000) = %.9f rad, want %.9f rad", got, want)
	}
}

func TestObserverECEF(t *testing.T) {
	tests := []struct {
		name string
		loc  GeodeticLocation
		want Vector
	}{
		{"equator prime meridian", GeodeticLocation{0, 0, 0}, Vector{re, 0, 0}},
		{"equator 90E", GeodeticLocation{0, 90, 0}, Vector{0, re, 0}},
		{"north pole", GeodeticLocation{90, 0, 0}, Vector{0, 0, re * (1 - f)}},
		{"equator 1km up", GeodeticLocation{0, 0, 1000}, Vector{re + 1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := observerECEF(tt.loc)
			if got.Sub(tt.want).Norm() > 1e-6 {
				t.Errorf("observerECEF() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLookAnglesRoundTrip(t *testing.T) {
	when := time.Date(2025, 1, 25, 3, 14, 15, 0, time.UTC)
	tests := []struct {
		az, el, rng float64
	}{
		{0, 45, 1000},
		{90, 10, 2500},
		{180.5, 0.1, 3000},
		{271.25, 89, 420},
		{359.9, -20, 5000},
	}

	for _, tt := range tests {
		pos := topocentricToECI(mcDonald, when, tt.az, tt.el, tt.rng)
		az, el, rng := lookAngles(pos, mcDonald, when)
		if math.Abs(az-tt.az) > 1e-6 || math.Abs(el-tt.el) > 1e-6 || math.Abs(rng-tt.rng) > 1e-6 {
			t.Errorf("round trip (%.2f, %.2f, %.1f) gave (%.6f, %.6f, %.6f)", tt.az, tt.el, tt.rng, az, el, rng)
		}
	}
}

func TestLookAnglesZenith(t *testing.T) {
	when := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	obs := observerECI(mcDonald, when)
	_, _, zenith := sezBasis(mcDonald, when)
	_, el, rng := lookAngles(obs.Add(zenith.Scale(800)), mcDonald, when)
	if math.Abs(el-90) > 1e-4 || math.Abs(rng-800) > 1e-6 {
		t.Errorf("zenith look = el %.6f, range %.6f", el, rng)
	}
}

func TestGeodeticFromECI(t *testing.T) {
	when := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	for _, loc := range []GeodeticLocation{
		mcDonald,
		{LatitudeDeg: -33.9, LongitudeDeg: 151.2, ElevationM: 400000},
		{LatitudeDeg: 0, LongitudeDeg: 179.5, ElevationM: 35786000},
	} {
		lat, lon, alt := geodeticFromECI(observerECI(loc, when), when)
		if math.Abs(lat-loc.LatitudeDeg) > 1e-6 || math.Abs(lon-loc.LongitudeDeg) > 1e-6 ||
			math.Abs(alt-loc.ElevationM/1000) > 1e-5 {
			t.Errorf("geodeticFromECI(%+v) = (%.6f, %.6f, %.6f)", loc, lat, lon, alt)
		}
	}
}

func TestInstantConstructors(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	local := time.Date(2025, 1, 25, 8, 0, 0, 700_000_000, est)

	aware := FromAnyTimezone(local)
	if want := time.Date(2025, 1, 25, 13, 0, 0, 0, time.UTC); !aware.Time().Equal(want) {
		t.Errorf("FromAnyTimezone() = %v, want %v", aware, want)
	}
	if aware.Time().Location() != time.UTC {
		t.Errorf("FromAnyTimezone() location = %v, want UTC", aware.Time().Location())
	}

	naive := FromUTCNaive(local)
	if want := time.Date(2025, 1, 25, 8, 0, 0, 0, time.UTC); !naive.Time().Equal(want) {
		t.Errorf("FromUTCNaive() = %v, want %v", naive, want)
	}

	if !aware.Before(naive.Add(6*time.Hour)) || naive.Sub(aware) != -5*time.Hour {
		t.Errorf("unexpected ordering between %v and %v", aware, naive)
	}
}
