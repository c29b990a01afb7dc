package inview

import (
	"reflect"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestGroundStationFromRecord(t *testing.T) {
	gs := GroundStationFromRecord(map[string]any{
		"name":                    "Campus",
		"lat":                     "200",
		"lon":                     "-83.5",
		"el_meters":               350,
		"minimum_elevation_angle": "10",
		"tz":                      "America/New_York",
		"operations_start_hour":   "08",
		"operations_start_minute": 15,
		"operations_end_hour":     "7.5",
		"operations_end_minute":   "99",
		"show_operations_hours":   "false",
		"aer_min_el":              "5",
		"aer_keyhole_el":          95,
	})

	if gs.Name() != "Campus" {
		t.Errorf("Name() = %q", gs.Name())
	}
	want := GeodeticLocation{LatitudeDeg: 0, LongitudeDeg: -83.5, ElevationM: 350}
	if gs.Location() != want {
		t.Errorf("Location() = %+v, want %+v", gs.Location(), want)
	}
	if gs.MinimumElevation() != 10 {
		t.Errorf("MinimumElevation() = %g, want 10", gs.MinimumElevation())
	}
	if gs.TimeZone().String() != "America/New_York" {
		t.Errorf("TimeZone() = %v", gs.TimeZone())
	}
	wantHours := OperatingHours{Show: false, StartHour: 8, StartMinute: 15, EndHour: 16, EndMinute: 30}
	if gs.OperatingHours() != wantHours {
		t.Errorf("OperatingHours() = %+v, want %+v", gs.OperatingHours(), wantHours)
	}
	if gs.AntennaMinElevation() != 5 || gs.AntennaKeyholeElevation() != 90 {
		t.Errorf("antenna limits = %g, %g; want 5, 90", gs.AntennaMinElevation(), gs.AntennaKeyholeElevation())
	}
}

func TestGroundStationFromRecordDefaults(t *testing.T) {
	gs := GroundStationFromRecord(map[string]any{
		"lat":                     "north",
		"minimum_elevation_angle": nil,
		"tz":                      "Mars/Olympus_Mons",
	})

	if gs.Location() != (GeodeticLocation{}) {
		t.Errorf("Location() = %+v, want zero", gs.Location())
	}
	if gs.MinimumElevation() != 0 {
		t.Errorf("MinimumElevation() = %g, want 0", gs.MinimumElevation())
	}
	if gs.TimeZone() != time.UTC {
		t.Errorf("TimeZone() = %v, want UTC", gs.TimeZone())
	}
	if h := gs.OperatingHours(); !h.Show || h.String() != "08:00 to 16:30" {
		t.Errorf("OperatingHours() = %+v", h)
	}
	if len(gs.GoodSectors()) != 0 || len(gs.BadSectors()) != 0 {
		t.Errorf("unexpected sectors")
	}
}

func TestGroundStationSectors(t *testing.T) {
	gs := GroundStationFromRecord(map[string]any{
		"good_sectors": [][]float64{{0, 400, -5, 45}, {10, 20}},
		"bad_sectors":  []any{[]any{"90", "180", "x", 30}},
	})

	good := []Sector{{MinAz: 0, MaxAz: 360, MinEl: 0, MaxEl: 45}}
	if got := gs.GoodSectors(); !reflect.DeepEqual(got, good) {
		t.Errorf("GoodSectors() = %+v, want %+v", got, good)
	}
	bad := []Sector{{MinAz: 90, MaxAz: 180, MinEl: 0, MaxEl: 30}}
	if got := gs.BadSectors(); !reflect.DeepEqual(got, bad) {
		t.Errorf("BadSectors() = %+v, want %+v", got, bad)
	}

	// Mutating the returned copy leaves the station untouched.
	gs.GoodSectors()[0].MaxEl = 0
	if gs.GoodSectors()[0].MaxEl != 45 {
		t.Error("GoodSectors() exposed internal state")
	}
}

func TestSectorStatus(t *testing.T) {
	gs := NewGroundStation("test", GeodeticLocation{}, 0,
		WithAntennaLimits(10, 85),
		WithGoodSectors(Sector{MinAz: 0, MaxAz: 180, MinEl: 0, MaxEl: 90}),
		WithBadSectors(Sector{MinAz: 90, MaxAz: 120, MinEl: 0, MaxEl: 40}),
	)

	tests := []struct {
		name   string
		az, el float64
		want   SectorStatus
	}{
		{"below antenna minimum", 45, 5, SectorBelowMinimum},
		{"keyhole", 45, 88, SectorKeyhole},
		{"bad wins over good", 100, 20, SectorBad},
		{"good", 45, 20, SectorGood},
		{"above bad sector", 100, 60, SectorGood},
		{"neutral", 270, 20, SectorNeutral},
		{"boundary included", 180, 10, SectorGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gs.SectorStatus(tt.az, tt.el); got != tt.want {
				t.Errorf("SectorStatus(%g, %g) = %v, want %v", tt.az, tt.el, got, tt.want)
			}
		})
	}

	if (Sector{MinAz: 50, MaxAz: 40, MinEl: 0, MaxEl: 90}).Contains(45, 10) {
		t.Error("inverted sector should contain nothing")
	}
}

func TestPredefinedStations(t *testing.T) {
	tests := []struct {
		key   string
		name  string
		lat   float64
		minEl float64
		tz    string
	}{
		{"wallops", "Wallops Antenna", 37.854886, 0, "America/New_York"},
		{"Morehead", "Morehead Antenna", 38.191834, 10, "America/New_York"},
		{"sri_paloalto", "SRI Palo Alto Antenna", 37.40303, 10, "America/Los_Angeles"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			// Other keys are ignored when a predefined station is named.
			gs := GroundStationFromRecord(map[string]any{"predefined": tt.key, "lat": 1})
			if gs.Name() != tt.name || gs.Location().LatitudeDeg != tt.lat ||
				gs.MinimumElevation() != tt.minEl || gs.TimeZone().String() != tt.tz {
				t.Errorf("unexpected station %s", gs)
			}
		})
	}
}

func TestUTCOffset(t *testing.T) {
	gs := Wallops()
	if got := gs.UTCOffset(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)); got != -5*time.Hour {
		t.Errorf("January offset = %v, want -5h", got)
	}
	if got := gs.UTCOffset(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)); got != -4*time.Hour {
		t.Errorf("July offset = %v, want -4h", got)
	}
	if got := NewGroundStation("utc", GeodeticLocation{}, 0).UTCOffset(time.Now()); got != 0 {
		t.Errorf("default offset = %v, want 0", got)
	}
}

func TestSatelliteFromRecord(t *testing.T) {
	rec := SatelliteFromRecord(map[string]any{
		"number":             "25544",
		"name":               "ISS",
		"contact_name":       "Zarya",
		"receive_frequency":  "145.8",
		"transmit_frequency": 99999,
	})

	if rec.Number != 25544 || rec.Name != "ISS" || rec.URL != DefaultCatalogURL {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ReceiveFrequency == nil || *rec.ReceiveFrequency != 145.8 {
		t.Errorf("ReceiveFrequency = %v, want 145.8", rec.ReceiveFrequency)
	}
	if rec.TransmitFrequency != nil {
		t.Errorf("TransmitFrequency = %v, want nil", *rec.TransmitFrequency)
	}

	el, err := ParseElementSet("", issLine1, issLine2, rec.ElementOptions()...)
	if err != nil {
		t.Fatalf("ParseElementSet() error = %v", err)
	}
	if el.Name() != "ISS" || el.ContactName() != "Zarya" {
		t.Errorf("names = %q, %q", el.Name(), el.ContactName())
	}
	if f, ok := el.ReceiveFrequency(); !ok || f != 145.8 {
		t.Errorf("ReceiveFrequency() = %g, %t", f, ok)
	}
	if _, ok := el.TransmitFrequency(); ok {
		t.Error("TransmitFrequency() should be unset")
	}
}
