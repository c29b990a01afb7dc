package inview

import (
	"fmt"
	"time"
)

// GeodeticLocation is a point on the WGS-84 ellipsoid.
type GeodeticLocation struct {
	LatitudeDeg  float64 // North positive, [-90, 90]
	LongitudeDeg float64 // East positive, [-180, 180]
	ElevationM   float64 // meters above the ellipsoid
}

// Sector is a rectangular azimuth/elevation region, in degrees.
type Sector struct {
	MinAz, MaxAz float64
	MinEl, MaxEl float64
}

// Contains reports whether the direction lies inside the sector, bounds
// included. Malformed sectors (min >= max) contain nothing.
func (s Sector) Contains(az, el float64) bool {
	if s.MinAz >= s.MaxAz || s.MinEl >= s.MaxEl {
		return false
	}
	return az >= s.MinAz && az <= s.MaxAz && el >= s.MinEl && el <= s.MaxEl
}

// OperatingHours is the local staffed window of a station.
type OperatingHours struct {
	Show        bool
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

func (h OperatingHours) String() string {
	return fmt.Sprintf("%02d:%02d to %02d:%02d", h.StartHour, h.StartMinute, h.EndHour, h.EndMinute)
}

// SectorStatus classifies a look direction against a station's antenna
// constraints.
type SectorStatus int

const (
	SectorNeutral SectorStatus = iota
	SectorGood
	SectorBad
	SectorKeyhole
	SectorBelowMinimum
)

func (s SectorStatus) String() string {
	switch s {
	case SectorGood:
		return "good"
	case SectorBad:
		return "bad"
	case SectorKeyhole:
		return "keyhole"
	case SectorBelowMinimum:
		return "below-minimum"
	default:
		return "neutral"
	}
}

// GroundStation is an immutable ground station configuration.
type GroundStation struct {
	name         string
	address      string
	location     GeodeticLocation
	minElevation float64
	aerMinEl     float64
	aerKeyholeEl float64
	goodSectors  []Sector
	badSectors   []Sector
	tz           *time.Location
	hours        OperatingHours
	weatherURL   string
	otherInfo    string
	scheduleDir  string
}

// StationOption configures optional GroundStation fields.
type StationOption func(*GroundStation)

// WithAddress sets the station's postal address.
func WithAddress(address string) StationOption {
	return func(g *GroundStation) { g.address = address }
}

// WithTimeZone sets the station's local time zone. A nil location means UTC.
func WithTimeZone(tz *time.Location) StationOption {
	return func(g *GroundStation) {
		if tz != nil {
			g.tz = tz
		}
	}
}

// WithOperatingHours sets the displayed operating hours. Out-of-range
// fields fall back to 08:00 to 16:30.
func WithOperatingHours(h OperatingHours) StationOption {
	return func(g *GroundStation) {
		g.hours = OperatingHours{
			Show:        h.Show,
			StartHour:   clampInt(h.StartHour, 0, 23, 8),
			StartMinute: clampInt(h.StartMinute, 0, 59, 0),
			EndHour:     clampInt(h.EndHour, 0, 23, 16),
			EndMinute:   clampInt(h.EndMinute, 0, 59, 30),
		}
	}
}

// WithAntennaLimits sets the antenna minimum and keyhole elevations used by
// SectorStatus.
func WithAntennaLimits(minEl, keyholeEl float64) StationOption {
	return func(g *GroundStation) {
		g.aerMinEl = clampFloat(minEl, 0, 90, 0)
		g.aerKeyholeEl = clampFloat(keyholeEl, 0, 90, 90)
	}
}

// WithGoodSectors sets the sectors the antenna prefers.
func WithGoodSectors(sectors ...Sector) StationOption {
	return func(g *GroundStation) { g.goodSectors = clampSectors(sectors) }
}

// WithBadSectors sets the sectors to avoid. They take precedence over good
// sectors.
func WithBadSectors(sectors ...Sector) StationOption {
	return func(g *GroundStation) { g.badSectors = clampSectors(sectors) }
}

// WithWeatherURL sets a link to the local forecast.
func WithWeatherURL(url string) StationOption {
	return func(g *GroundStation) { g.weatherURL = url }
}

// WithOtherInfo sets free-form notes shown with the station.
func WithOtherInfo(info string) StationOption {
	return func(g *GroundStation) { g.otherInfo = info }
}

// WithScheduleDirectory records where the station's contact schedules live.
func WithScheduleDirectory(dir string) StationOption {
	return func(g *GroundStation) { g.scheduleDir = dir }
}

// NewGroundStation builds a station. Out-of-range values are replaced by the
// same defaults GroundStationFromRecord applies.
func NewGroundStation(name string, loc GeodeticLocation, minElevationDeg float64, opts ...StationOption) *GroundStation {
	g := &GroundStation{
		name: name,
		location: GeodeticLocation{
			LatitudeDeg:  clampFloat(loc.LatitudeDeg, -90, 90, 0),
			LongitudeDeg: clampFloat(loc.LongitudeDeg, -180, 180, 0),
			ElevationM:   clampFloat(loc.ElevationM, -1000, 10000, 0),
		},
		minElevation: clampFloat(minElevationDeg, 0, 90, 0),
		aerKeyholeEl: 90,
		tz:           time.UTC,
		hours:        OperatingHours{Show: true, StartHour: 8, EndHour: 16, EndMinute: 30},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the station's display name.
func (g *GroundStation) Name() string { return g.name }

// Address returns the station's postal address, if any.
func (g *GroundStation) Address() string { return g.address }

// Location returns the geodetic position of the antenna.
func (g *GroundStation) Location() GeodeticLocation { return g.location }

// MinimumElevation returns the elevation mask in degrees.
func (g *GroundStation) MinimumElevation() float64 { return g.minElevation }

// AntennaMinElevation returns the lowest elevation the antenna can track.
func (g *GroundStation) AntennaMinElevation() float64 { return g.aerMinEl }

// AntennaKeyholeElevation returns the elevation above which the antenna
// cannot follow the pass.
func (g *GroundStation) AntennaKeyholeElevation() float64 { return g.aerKeyholeEl }

// TimeZone returns the station's local time zone, UTC when unknown.
func (g *GroundStation) TimeZone() *time.Location { return g.tz }

// OperatingHours returns the staffed hours in local time.
func (g *GroundStation) OperatingHours() OperatingHours { return g.hours }

// WeatherURL returns the forecast link, if any.
func (g *GroundStation) WeatherURL() string { return g.weatherURL }

// OtherInfo returns free-form notes about the station.
func (g *GroundStation) OtherInfo() string { return g.otherInfo }

// ScheduleDirectory returns where contact schedules are kept.
func (g *GroundStation) ScheduleDirectory() string { return g.scheduleDir }

// GoodSectors returns a copy of the good sectors.
func (g *GroundStation) GoodSectors() []Sector { return append([]Sector(nil), g.goodSectors...) }

// BadSectors returns a copy of the bad sectors.
func (g *GroundStation) BadSectors() []Sector { return append([]Sector(nil), g.badSectors...) }

// SectorStatus classifies a look direction. Elevation limits take
// precedence over sectors, and bad sectors over good ones.
func (g *GroundStation) SectorStatus(az, el float64) SectorStatus {
	switch {
	case el < g.aerMinEl:
		return SectorBelowMinimum
	case el > g.aerKeyholeEl:
		return SectorKeyhole
	}
	for _, s := range g.badSectors {
		if s.Contains(az, el) {
			return SectorBad
		}
	}
	for _, s := range g.goodSectors {
		if s.Contains(az, el) {
			return SectorGood
		}
	}
	return SectorNeutral
}

// UTCOffset returns the station's offset from UTC on the given date.
func (g *GroundStation) UTCOffset(date time.Time) time.Duration {
	y, m, d := date.Date()
	_, off := time.Date(y, m, d, 12, 0, 0, 0, g.tz).Zone()
	return time.Duration(off) * time.Second
}

func (g *GroundStation) String() string {
	return fmt.Sprintf("Name: %s Address: %s Timezone: %s\nLat: %g Lon: %g El(m): %g\nMin El: %g Operating times: %s, Show times: %t",
		g.name, g.address, g.tz, g.location.LatitudeDeg, g.location.LongitudeDeg, g.location.ElevationM,
		g.minElevation, g.hours, g.hours.Show)
}

// Wallops returns the predefined Wallops antenna.
func Wallops() *GroundStation {
	return NewGroundStation("Wallops Antenna",
		GeodeticLocation{LatitudeDeg: 37.854886, LongitudeDeg: -75.512936, ElevationM: 3.8}, 0,
		WithAddress("Radar Road, Temperanceville, VA  23442"),
		WithTimeZone(loadLocation("America/New_York")),
		WithOperatingHours(OperatingHours{Show: true, StartHour: 8, StartMinute: 30, EndHour: 23, EndMinute: 30}),
	)
}

// Morehead returns the predefined Morehead State antenna.
func Morehead() *GroundStation {
	return NewGroundStation("Morehead Antenna",
		GeodeticLocation{LatitudeDeg: 38.191834, LongitudeDeg: -83.438841, ElevationM: 353}, 10,
		WithTimeZone(loadLocation("America/New_York")),
	)
}

// SRIPaloAlto returns the predefined SRI Palo Alto antenna.
func SRIPaloAlto() *GroundStation {
	return NewGroundStation("SRI Palo Alto Antenna",
		GeodeticLocation{LatitudeDeg: 37.40303, LongitudeDeg: -122.17423, ElevationM: 156.47}, 10,
		WithTimeZone(loadLocation("America/Los_Angeles")),
	)
}

// loadLocation resolves an IANA zone name, falling back to UTC.
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func clampSectors(in []Sector) []Sector {
	out := make([]Sector, 0, len(in))
	for _, s := range in {
		out = append(out, Sector{
			MinAz: clampFloat(s.MinAz, 0, 360, 0),
			MaxAz: clampFloat(s.MaxAz, 0, 360, 360),
			MinEl: clampFloat(s.MinEl, 0, 90, 0),
			MaxEl: clampFloat(s.MaxEl, 0, 90, 90),
		})
	}
	return out
}

// clampFloat returns v when it lies in [lo, hi], def otherwise (NaN included).
func clampFloat(v, lo, hi, def float64) float64 {
	if v >= lo && v <= hi {
		return v
	}
	return def
}

func clampInt(v, lo, hi, def int) int {
	if v >= lo && v <= hi {
		return v
	}
	return def
}
