package inview

import (
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// DefaultCatalogURL is the element set catalog used when a satellite record
// names none.
const DefaultCatalogURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=cubesat&FORMAT=tle"

// GroundStationFromRecord builds a station from a loosely typed configuration
// record, as decoded from YAML or JSON. Values may be numbers or strings.
// Missing, unparsable or out-of-range values fall back to their defaults;
// construction never fails.
func GroundStationFromRecord(rec map[string]any) *GroundStation {
	switch strings.ToLower(recordString(rec, "predefined")) {
	case "wallops":
		return Wallops()
	case "morehead":
		return Morehead()
	case "sri_paloalto":
		return SRIPaloAlto()
	}

	loc := GeodeticLocation{
		LatitudeDeg:  recordFloat(rec, "lat", -90, 90, 0),
		LongitudeDeg: recordFloat(rec, "lon", -180, 180, 0),
		ElevationM:   recordFloat(rec, "el_meters", -1000, 10000, 0),
	}
	return NewGroundStation(recordString(rec, "name"), loc,
		recordFloat(rec, "minimum_elevation_angle", 0, 90, 0),
		WithAddress(recordString(rec, "address")),
		WithTimeZone(loadLocation(recordString(rec, "tz"))),
		WithWeatherURL(recordString(rec, "weather_url")),
		WithOtherInfo(recordString(rec, "other_info")),
		WithOperatingHours(OperatingHours{
			Show:        recordBool(rec, "show_operations_hours", true),
			StartHour:   recordInt(rec, "operations_start_hour", 0, 23, 8),
			StartMinute: recordInt(rec, "operations_start_minute", 0, 59, 0),
			EndHour:     recordInt(rec, "operations_end_hour", 0, 23, 16),
			EndMinute:   recordInt(rec, "operations_end_minute", 0, 59, 30),
		}),
		WithAntennaLimits(
			recordFloat(rec, "aer_min_el", 0, 90, 0),
			recordFloat(rec, "aer_keyhole_el", 0, 90, 90),
		),
		WithGoodSectors(recordSectors(rec, "good_sectors")...),
		WithBadSectors(recordSectors(rec, "bad_sectors")...),
		WithScheduleDirectory(recordString(rec, "contact_schedule_directory")),
	)
}

// SatelliteRecord describes which element set to fetch and how to label it.
type SatelliteRecord struct {
	Number            int
	Name              string
	ContactName       string
	URL               string
	File              string
	ReceiveFrequency  *float64 // MHz
	TransmitFrequency *float64 // MHz
}

// SatelliteFromRecord decodes a satellite configuration record with the same
// never-fail defaulting as GroundStationFromRecord.
func SatelliteFromRecord(rec map[string]any) SatelliteRecord {
	s := SatelliteRecord{
		Number:      recordInt(rec, "number", 0, 1000000, 0),
		Name:        recordString(rec, "name"),
		ContactName: recordString(rec, "contact_name"),
		URL:         recordString(rec, "url"),
		File:        recordString(rec, "file"),
	}
	if s.URL == "" {
		s.URL = DefaultCatalogURL
	}
	if f, ok := recordOptionalFloat(rec, "receive_frequency", 0, 9999); ok {
		s.ReceiveFrequency = &f
	}
	if f, ok := recordOptionalFloat(rec, "transmit_frequency", 0, 9999); ok {
		s.TransmitFrequency = &f
	}
	return s
}

// ElementOptions returns the metadata options to apply to the element set
// fetched for this record.
func (s SatelliteRecord) ElementOptions() []ElementOption {
	var opts []ElementOption
	if s.Name != "" {
		opts = append(opts, WithName(s.Name))
	}
	if s.ContactName != "" {
		opts = append(opts, WithContactName(s.ContactName))
	}
	if s.ReceiveFrequency != nil {
		opts = append(opts, WithReceiveFrequency(*s.ReceiveFrequency))
	}
	if s.TransmitFrequency != nil {
		opts = append(opts, WithTransmitFrequency(*s.TransmitFrequency))
	}
	return opts
}

func recordString(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func toFloat(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func recordOptionalFloat(rec map[string]any, key string, lo, hi float64) (float64, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || f < lo || f > hi {
		return 0, false
	}
	return f, true
}

func recordFloat(rec map[string]any, key string, lo, hi, def float64) float64 {
	if f, ok := recordOptionalFloat(rec, key, lo, hi); ok {
		return f
	}
	return def
}

// recordInt parses through float64 so that "08" reads as decimal eight and
// "7.5" is rejected rather than truncated.
func recordInt(rec map[string]any, key string, lo, hi, def int) int {
	f, ok := recordOptionalFloat(rec, key, float64(lo), float64(hi))
	if !ok || f != math.Trunc(f) {
		return def
	}
	return int(f)
}

func recordBool(rec map[string]any, key string, def bool) bool {
	v, ok := rec[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// recordSectors reads a list of [min_az, max_az, min_el, max_el] entries.
// Unparsable fields take the value that widens the sector; entries that are
// not four elements long are skipped.
func recordSectors(rec map[string]any, key string) []Sector {
	var sectors []Sector
	for _, entry := range toList(rec[key]) {
		fields := toList(entry)
		if len(fields) != 4 {
			continue
		}
		vals := [4]float64{0, 360, 0, 90}
		for i, raw := range fields {
			if f, ok := toFloat(raw); ok {
				vals[i] = f
			}
		}
		// Out-of-range values are reset by NewGroundStation's sector clamping.
		sectors = append(sectors, Sector{MinAz: vals[0], MaxAz: vals[1], MinEl: vals[2], MaxEl: vals[3]})
	}
	return sectors
}

func toList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
