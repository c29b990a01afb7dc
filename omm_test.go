package inview

import (
	"errors"
	"math"
	"testing"
	"time"
)

const ommJSONExample = `
[{"OBJECT_NAME":"ISS (ZARYA)","OBJECT_ID":"1998-067A","EPOCH":"2025-05-26T13:06:57.824640","MEAN_MOTION":15.4975272,"ECCENTRICITY":0.0002241,"INCLINATION":51.6382,"RA_OF_ASC_NODE":54.2937,"ARG_OF_PERICENTER":147.4648,"MEAN_ANOMALY":271.6158,"EPHEMERIS_TYPE":0,"CLASSIFICATION_TYPE":"U","NORAD_CAT_ID":25544,"ELEMENT_SET_NO":999,"REV_AT_EPOCH":51180,"BSTAR":0.00019155,"MEAN_MOTION_DOT":0.00010397,"MEAN_MOTION_DDOT":0},{"OBJECT_NAME":"CSS (TIANHE)","OBJECT_ID":"2021-035A","EPOCH":"2025-05-25T23:00:12.248640","MEAN_MOTION":15.62412324,"ECCENTRICITY":0.0005017,"INCLINATION":41.463,"RA_OF_ASC_NODE":155.4996,"ARG_OF_PERICENTER":337.345,"MEAN_ANOMALY":22.7167,"EPHEMERIS_TYPE":0,"CLASSIFICATION_TYPE":"U","NORAD_CAT_ID":48274,"ELEMENT_SET_NO":999,"REV_AT_EPOCH":23268,"BSTAR":0.00015624,"MEAN_MOTION_DOT":0.00013949,"MEAN_MOTION_DDOT":0},{"OBJECT_NAME":"FREGAT DEB","OBJECT_ID":"2011-037PF","EPOCH":"2025-05-19T00:59:35.639808","MEAN_MOTION":12.28834273,"ECCENTRICITY":0.0869949,"INCLINATION":51.6315,"RA_OF_ASC_NODE":92.6347,"ARG_OF_PERICENTER":128.5677,"MEAN_ANOMALY":239.6424,"EPHEMERIS_TYPE":0,"CLASSIFICATION_TYPE":"U","NORAD_CAT_ID":49271,"ELEMENT_SET_NO":999,"REV_AT_EPOCH":17632,"BSTAR":0.03654,"MEAN_MOTION_DOT":0.00014961,"MEAN_MOTION_DDOT":0}]
`

func TestParseOMMs(t *testing.T) {
	omms, err := ParseOMMs([]byte(ommJSONExample))
	if err != nil {
		t.Fatalf("ParseOMMs failed: %v", err)
	}
	if len(omms) != 3 {
		t.Fatalf("Expected 3 OMM objects, got %d", len(omms))
	}

	iss := omms[0]
	if iss.ObjectName != "ISS (ZARYA)" || iss.NoradCatID != 25544 {
		t.Errorf("unexpected first object %q (%d)", iss.ObjectName, iss.NoradCatID)
	}
	if iss.Epoch != "2025-05-26T13:06:57.824640" {
		t.Errorf("Epoch = %q", iss.Epoch)
	}
	if math.Abs(iss.MeanMotion-15.4975272) > 1e-9 {
		t.Errorf("MeanMotion = %f", iss.MeanMotion)
	}

	if _, err := ParseOMMs([]byte(`{"OBJECT_NAME":`)); err == nil {
		t.Error("ParseOMMs should fail on truncated JSON")
	}
}

func TestOMMLines(t *testing.T) {
	omms, err := ParseOMMs([]byte(ommJSONExample))
	if err != nil {
		t.Fatalf("ParseOMMs failed: %v", err)
	}

	tests := []struct {
		name         string
		omm          OMM
		line1, line2 string
	}{
		{
			"ISS", omms[0],
			"1 25544U 98067A   25146.54650260  .00010397  00000+0  19155-3 0  9999",
			"2 25544  51.6382  54.2937 0002241 147.4648 271.6158 15.49752720511807",
		},
		{
			"debris with a three letter piece", omms[2],
			"1 49271U 11037PF  25139.04138472  .00014961  00000+0  36540-1 0  9993",
			"2 49271  51.6315  92.6347 0869949 128.5677 239.6424 12.28834273176327",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2, err := tt.omm.Lines()
			if err != nil {
				t.Fatalf("Lines() error = %v", err)
			}
			if l1 != tt.line1 {
				t.Errorf("line 1:\ngot  %q\nwant %q", l1, tt.line1)
			}
			if l2 != tt.line2 {
				t.Errorf("line 2:\ngot  %q\nwant %q", l2, tt.line2)
			}
		})
	}
}

func TestOMMElementSet(t *testing.T) {
	el, err := FindOMM([]byte(ommJSONExample), 25544, WithContactName("ISS"))
	if err != nil {
		t.Fatalf("FindOMM() error = %v", err)
	}

	if el.Name() != "ISS (ZARYA)" || el.ContactName() != "ISS" {
		t.Errorf("names = %q, %q", el.Name(), el.ContactName())
	}
	e := el.Elements()
	if e.LaunchYear != 1998 || e.LaunchNumber != 67 || e.LaunchPiece != "A" {
		t.Errorf("designator = %d %d %q", e.LaunchYear, e.LaunchNumber, e.LaunchPiece)
	}
	if math.Abs(e.Bstar-0.00019155) > 1e-12 || math.Abs(e.Eccentricity-0.0002241) > 1e-12 {
		t.Errorf("Bstar = %g, Eccentricity = %g", e.Bstar, e.Eccentricity)
	}
	want := time.Date(2025, 5, 26, 13, 6, 57, 824640000, time.UTC)
	if d := el.Epoch().Sub(want); d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("Epoch() = %v, want %v", el.Epoch(), want)
	}

	if _, err := FindOMM([]byte(ommJSONExample), 11111); !errors.Is(err, ErrMalformedElementSet) {
		t.Errorf("FindOMM(unknown) error = %v", err)
	}
}

func TestOMMLinesErrors(t *testing.T) {
	base := OMM{
		ObjectName: "TEST", ObjectID: "2020-001A", Epoch: "2025-01-01T00:00:00",
		MeanMotion: 15, Inclination: 51, NoradCatID: 1,
	}

	tests := []struct {
		name   string
		mutate func(*OMM)
	}{
		{"six digit catalog number", func(o *OMM) { o.NoradCatID = 270000 }},
		{"bad object id", func(o *OMM) { o.ObjectID = "20-1" }},
		{"bad epoch", func(o *OMM) { o.Epoch = "yesterday" }},
		{"hyperbolic", func(o *OMM) { o.Eccentricity = 1.2 }},
		{"retrograde beyond 180", func(o *OMM) { o.Inclination = 181 }},
		{"mean motion dot too large", func(o *OMM) { o.MeanMotionDot = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.mutate(&o)
			if _, _, err := o.Lines(); !errors.Is(err, ErrMalformedElementSet) {
				t.Errorf("Lines() error = %v, want ErrMalformedElementSet", err)
			}
		})
	}

	if _, _, err := base.Lines(); err != nil {
		t.Errorf("base Lines() error = %v", err)
	}
}

func TestFormatAssumedDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, " 00000+0"},
		{0.00019155, " 19155-3"},
		{-0.000011606, "-11606-4"},
		{0.03654, " 36540-1"},
		{0.5, " 50000+0"},
		{0.0099999999, " 10000-1"},
	}
	for _, tt := range tests {
		got, err := formatAssumedDecimal(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("formatAssumedDecimal(%g) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if back, _ := parseAssumedDecimal(got[:6], got[6:]); math.Abs(back-tt.in) > 1e-5*math.Abs(tt.in)+1e-12 {
			t.Errorf("round trip of %g gave %g", tt.in, back)
		}
	}
}
