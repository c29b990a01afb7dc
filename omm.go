package inview

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// OMM is a CCSDS Orbit Mean-elements Message in the JSON layout served by
// CelesTrak and Space-Track (FORMAT=json).
type OMM struct {
	ObjectName         string  `json:"OBJECT_NAME"`
	ObjectID           string  `json:"OBJECT_ID"` // e.g. "1998-067A"
	Epoch              string  `json:"EPOCH"`     // ISO 8601, UTC when no zone is given
	MeanMotion         float64 `json:"MEAN_MOTION"`
	Eccentricity       float64 `json:"ECCENTRICITY"`
	Inclination        float64 `json:"INCLINATION"`
	RAOfAscNode        float64 `json:"RA_OF_ASC_NODE"`
	ArgOfPericenter    float64 `json:"ARG_OF_PERICENTER"`
	MeanAnomaly        float64 `json:"MEAN_ANOMALY"`
	EphemerisType      int     `json:"EPHEMERIS_TYPE"`
	ClassificationType string  `json:"CLASSIFICATION_TYPE"`
	NoradCatID         int     `json:"NORAD_CAT_ID"`
	ElementSetNo       int     `json:"ELEMENT_SET_NO"`
	RevAtEpoch         int     `json:"REV_AT_EPOCH"`
	BStar              float64 `json:"BSTAR"`
	MeanMotionDot      float64 `json:"MEAN_MOTION_DOT"`
	MeanMotionDDot     float64 `json:"MEAN_MOTION_DDOT"`
}

// ParseOMMs decodes a JSON array of OMM objects.
func ParseOMMs(data []byte) ([]OMM, error) {
	var omms []OMM
	if err := json.Unmarshal(data, &omms); err != nil {
		return nil, fmt.Errorf("error unmarshalling OMM JSON: %w", err)
	}
	return omms, nil
}

// FindOMM decodes a JSON OMM catalog and returns the element set of the
// given satellite.
func FindOMM(data []byte, satelliteNumber int, opts ...ElementOption) (*TwoLineElement, error) {
	omms, err := ParseOMMs(data)
	if err != nil {
		return nil, malformed(satelliteNumber, 0, "reading OMM catalog", err)
	}
	for _, o := range omms {
		if o.NoradCatID == satelliteNumber {
			return o.ElementSet(opts...)
		}
	}
	return nil, malformed(satelliteNumber, 0, "satellite not found in OMM catalog", nil)
}

// ElementSet formats the message as a two-line element set, checksums
// included, and parses it.
func (o OMM) ElementSet(opts ...ElementOption) (*TwoLineElement, error) {
	line1, line2, err := o.Lines()
	if err != nil {
		return nil, err
	}
	return ParseElementSet(o.ObjectName, line1, line2, opts...)
}

// Lines renders the message in the fixed-column two-line format.
func (o OMM) Lines() (line1, line2 string, err error) {
	fail := func(line int, reason string, err error) (string, string, error) {
		return "", "", malformed(o.NoradCatID, line, reason, err)
	}

	if o.NoradCatID <= 0 || o.NoradCatID > 99999 {
		return fail(0, fmt.Sprintf("catalog number %d does not fit the two-line format", o.NoradCatID), nil)
	}
	class := "U"
	if o.ClassificationType != "" {
		class = o.ClassificationType[:1]
	}
	intl, err := internationalDesignator(o.ObjectID)
	if err != nil {
		return fail(1, "invalid object id", err)
	}
	epoch, err := parseOMMEpoch(o.Epoch)
	if err != nil {
		return fail(1, "invalid epoch", err)
	}
	dayStart := time.Date(epoch.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	day := 1 + float64(epoch.Sub(dayStart).Nanoseconds())/float64(24*time.Hour)

	ndot, err := formatDecimal(o.MeanMotionDot)
	if err != nil {
		return fail(1, "mean motion dot", err)
	}
	nddot, err := formatAssumedDecimal(o.MeanMotionDDot)
	if err != nil {
		return fail(1, "mean motion double dot", err)
	}
	bstar, err := formatAssumedDecimal(o.BStar)
	if err != nil {
		return fail(1, "B*", err)
	}

	line1 = fmt.Sprintf("1 %05d%s %-8s %02d%012.8f %s %s %s %d %4d",
		o.NoradCatID, class, intl, epoch.Year()%100, day, ndot, nddot, bstar, o.EphemerisType%10, o.ElementSetNo%10000)

	if o.Eccentricity < 0 || o.Eccentricity >= 1 {
		return fail(2, fmt.Sprintf("eccentricity %.10f is out of bounds [0,1)", o.Eccentricity), nil)
	}
	if o.Inclination < 0 || o.Inclination > 180 {
		return fail(2, fmt.Sprintf("inclination %.4f is out of bounds [0,180]", o.Inclination), nil)
	}
	ecc := int(math.Round(o.Eccentricity * 1e7))
	if ecc > 9999999 {
		return fail(2, "eccentricity rounds to 1", nil)
	}
	line2 = fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%05d",
		o.NoradCatID, o.Inclination, o.RAOfAscNode, ecc, o.ArgOfPericenter, o.MeanAnomaly, o.MeanMotion, o.RevAtEpoch%100000)

	if len(line1) != tleLineLength-1 || len(line2) != tleLineLength-1 {
		return fail(0, "element values overflow their columns", nil)
	}
	line1 += fmt.Sprint(calculateChecksum(line1 + "0"))
	line2 += fmt.Sprint(calculateChecksum(line2 + "0"))
	return line1, line2, nil
}

// internationalDesignator converts "1998-067A" to "98067A". Unknown objects
// have an empty designator.
func internationalDesignator(objectID string) (string, error) {
	objectID = strings.TrimSpace(objectID)
	if objectID == "" || strings.EqualFold(objectID, "UNKNOWN") {
		return "", nil
	}
	year, rest, ok := strings.Cut(objectID, "-")
	if !ok || len(year) != 4 || len(rest) < 4 || len(rest) > 6 {
		return "", fmt.Errorf("expected YYYY-NNNP{PP}, got %q", objectID)
	}
	return year[2:] + rest, nil
}

func parseOMMEpoch(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised epoch %q", s)
}

// formatDecimal renders v as " .NNNNNNNN" or "-.NNNNNNNN".
func formatDecimal(v float64) (string, error) {
	s := fmt.Sprintf("%.8f", math.Abs(v))
	if !strings.HasPrefix(s, "0.") {
		return "", fmt.Errorf("%g is not representable", v)
	}
	sign := " "
	if v < 0 {
		sign = "-"
	}
	return sign + s[1:], nil
}

// formatAssumedDecimal renders v as a sign, a five digit mantissa with an
// assumed leading decimal point and a one digit exponent: " 14567-3".
func formatAssumedDecimal(v float64) (string, error) {
	if v == 0 {
		return " 00000+0", nil
	}
	sign := " "
	if v < 0 {
		sign = "-"
	}
	a := math.Abs(v)
	exp := int(math.Floor(math.Log10(a))) + 1
	mant := int(math.Round(a / math.Pow(10, float64(exp)) * 1e5))
	if mant >= 100000 {
		mant /= 10
		exp++
	}
	if exp < -9 || exp > 9 {
		return "", fmt.Errorf("%g is not representable", v)
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
	}
	return fmt.Sprintf("%s%05d%s%d", sign, mant, expSign, abs(exp)), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
