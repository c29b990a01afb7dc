package inview

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	tleLineLength = 69
	muEarth       = 398600.4418 // km^3/s^2
)

// Elements holds the parsed fields of a two-line element set.
type Elements struct {
	// Line 1 fields
	SatelliteNumber int
	Classification  rune
	LaunchYear      int    // four digit, 0 when the designator is blank
	LaunchNumber    int    // launch number of the year
	LaunchPiece     string // piece of the launch
	EpochYear       int
	EpochDay        float64
	MeanMotionDot   float64
	MeanMotionDot2  float64
	Bstar           float64
	ElementNumber   int

	// Line 2 fields
	Inclination      float64 // degrees
	RightAscension   float64 // degrees
	Eccentricity     float64
	ArgOfPerigee     float64 // degrees
	MeanAnomaly      float64 // degrees
	MeanMotion       float64 // revolutions per day
	RevolutionNumber int
}

// EpochTime returns the time.Time representation of the element set epoch.
func (e Elements) EpochTime() time.Time {
	days := int(e.EpochDay) // Integer part of the day of the year
	fractionalDay := e.EpochDay - float64(days)

	// Day 1 means 0 full days passed from Jan 1st 00:00
	epochBaseDay := time.Date(e.EpochYear, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-1)
	totalNanosInDay := int64(math.Round(fractionalDay * secondsPerDay * 1e9))

	return epochBaseDay.Add(time.Duration(totalNanosInDay))
}

// SemiMajorAxis returns the semi-major axis in km recovered from the mean
// motion with Kepler's third law.
func (e Elements) SemiMajorAxis() float64 {
	n := e.MeanMotion * twoPi / secondsPerDay // rad/s
	return math.Cbrt(muEarth / (n * n))
}

// Period returns the orbital period.
func (e Elements) Period() time.Duration {
	return time.Duration(secondsPerDay / e.MeanMotion * float64(time.Second))
}

// IsGeostationary checks if the mean elements suggest a geostationary
// satellite. This does not guarantee station-keeping.
func (e Elements) IsGeostationary() bool {
	const (
		idealGeoMeanMotion  = 1.0027379093509 // revs/day, one sidereal rotation
		meanMotionTolerance = 0.05
		maxInclinationDeg   = 5.0
		maxEccentricity     = 0.05
	)

	if math.Abs(e.MeanMotion-idealGeoMeanMotion) > meanMotionTolerance {
		return false
	}
	return e.Inclination <= maxInclinationDeg && e.Eccentricity <= maxEccentricity
}

// ElementField names a fixed-column field of the element set.
type ElementField int

const (
	FieldSatelliteNumber ElementField = iota
	FieldLaunchYear
	FieldLaunchNumber
	FieldLaunchPiece
	FieldEpochYear
	FieldEpochDay
	FieldMeanMotionDot
	FieldMeanMotionDot2
	FieldBstar
	FieldElementNumber
	FieldInclination
	FieldRightAscension
	FieldEccentricity
	FieldArgOfPerigee
	FieldMeanAnomaly
	FieldMeanMotion
	FieldRevolutionNumber
)

// fieldColumns maps each field to its line and 0-indexed [start, end) columns.
var fieldColumns = [...]struct{ line, start, end int }{
	FieldSatelliteNumber:  {1, 2, 7},
	FieldLaunchYear:       {1, 9, 11},
	FieldLaunchNumber:     {1, 11, 14},
	FieldLaunchPiece:      {1, 14, 17},
	FieldEpochYear:        {1, 18, 20},
	FieldEpochDay:         {1, 20, 32},
	FieldMeanMotionDot:    {1, 33, 43},
	FieldMeanMotionDot2:   {1, 44, 52},
	FieldBstar:            {1, 53, 61},
	FieldElementNumber:    {1, 64, 68},
	FieldInclination:      {2, 8, 16},
	FieldRightAscension:   {2, 17, 25},
	FieldEccentricity:     {2, 26, 33},
	FieldArgOfPerigee:     {2, 34, 42},
	FieldMeanAnomaly:      {2, 43, 51},
	FieldMeanMotion:       {2, 52, 63},
	FieldRevolutionNumber: {2, 63, 68},
}

// TwoLineElement is an immutable, validated two-line element set together
// with its display and RF metadata. Refetching an element set produces a new
// value, never an in-place update.
type TwoLineElement struct {
	name        string
	contactName string
	line1       string
	line2       string
	elements    Elements
	rxFreq      float64
	txFreq      float64
	hasRx       bool
	hasTx       bool
}

// ElementOption sets optional metadata on a TwoLineElement at construction.
type ElementOption func(*TwoLineElement)

// WithName sets the display name, overriding any name line from the source.
func WithName(name string) ElementOption {
	return func(t *TwoLineElement) { t.name = strings.TrimSpace(name) }
}

// WithContactName sets the name used by ground station contact schedules.
func WithContactName(name string) ElementOption {
	return func(t *TwoLineElement) { t.contactName = strings.TrimSpace(name) }
}

// WithReceiveFrequency sets the ground receive (satellite downlink) frequency in MHz.
func WithReceiveFrequency(mhz float64) ElementOption {
	return func(t *TwoLineElement) { t.rxFreq, t.hasRx = mhz, true }
}

// WithTransmitFrequency sets the ground transmit (satellite uplink) frequency in MHz.
func WithTransmitFrequency(mhz float64) ElementOption {
	return func(t *TwoLineElement) { t.txFreq, t.hasTx = mhz, true }
}

// ParseElementSet validates and parses line 1 and line 2 of an element set.
// name may be empty.
func ParseElementSet(name, line1, line2 string, opts ...ElementOption) (*TwoLineElement, error) {
	line1 = strings.TrimRight(line1, " \t\r\n")
	line2 = strings.TrimRight(line2, " \t\r\n")

	tle := &TwoLineElement{name: strings.TrimSpace(name), line1: line1, line2: line2}
	if len(line1) != tleLineLength {
		return nil, malformed(0, 1, fmt.Sprintf("line must be %d characters, got %d", tleLineLength, len(line1)), nil)
	}
	if len(line2) != tleLineLength {
		return nil, malformed(0, 2, fmt.Sprintf("line must be %d characters, got %d", tleLineLength, len(line2)), nil)
	}

	if err := tle.elements.parseLine1(line1); err != nil {
		return nil, err
	}
	satNum := tle.elements.SatelliteNumber
	if err := tle.elements.parseLine2(line2); err != nil {
		return nil, err
	}

	for i, line := range []string{line1, line2} {
		want, err := strconv.Atoi(line[68:69])
		if err != nil {
			return nil, malformed(satNum, i+1, "invalid checksum digit", err)
		}
		if got := calculateChecksum(line); got != want {
			return nil, malformed(satNum, i+1,
				fmt.Sprintf("checksum mismatch: expected %d (from line), got %d (calculated)", want, got), nil)
		}
	}

	for _, opt := range opts {
		opt(tle)
	}
	return tle, nil
}

// ParseTLE parses a two-line element set string. It accepts either a
// two-line or three-line format (with satellite name).
func ParseTLE(input string, opts ...ElementOption) (*TwoLineElement, error) {
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	switch len(lines) {
	case 2:
		return ParseElementSet("", lines[0], lines[1], opts...)
	case 3:
		return ParseElementSet(strings.TrimPrefix(lines[0], "0 "), lines[1], lines[2], opts...)
	default:
		return nil, malformed(0, 0, "input must contain 2 or 3 lines", nil)
	}
}

// FindElementSet scans a NORAD catalog in two- or three-line format for the
// given satellite number. The display name is taken from the line preceding
// line 1 when that line is not itself an element line.
func FindElementSet(r io.Reader, satelliteNumber int, opts ...ElementOption) (*TwoLineElement, error) {
	var name, line1, line2, lastName string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		switch {
		case isElementLine(line, '1'):
			if line1 == "" && lineSatelliteNumber(line) == satelliteNumber {
				line1 = line
				name = lastName
			}
			lastName = ""
		case isElementLine(line, '2'):
			if line1 != "" && line2 == "" && lineSatelliteNumber(line) == satelliteNumber {
				line2 = line
			}
			lastName = ""
		default:
			lastName = strings.TrimPrefix(strings.TrimSpace(line), "0 ")
		}
		if line2 != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(satelliteNumber, 0, "reading catalog", err)
	}

	if line1 == "" {
		return nil, malformed(satelliteNumber, 1, "line not found in catalog", nil)
	}
	if line2 == "" {
		return nil, malformed(satelliteNumber, 2, "line not found in catalog", nil)
	}

	tle, err := ParseElementSet(name, line1, line2, opts...)
	if err != nil {
		return nil, err
	}
	return tle, nil
}

func isElementLine(line string, kind byte) bool {
	return len(line) >= 7 && line[0] == kind && line[1] == ' '
}

func lineSatelliteNumber(line string) int {
	n, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return -1
	}
	return n
}

// Elements returns a copy of the parsed fields.
func (t *TwoLineElement) Elements() Elements { return t.elements }

// SatelliteNumber returns the NORAD catalog number.
func (t *TwoLineElement) SatelliteNumber() int { return t.elements.SatelliteNumber }

func (t *TwoLineElement) Line1() string { return t.line1 }

func (t *TwoLineElement) Line2() string { return t.line2 }

// Name returns the display name, or the satellite number when none is known.
func (t *TwoLineElement) Name() string {
	if t.name == "" {
		return strconv.Itoa(t.elements.SatelliteNumber)
	}
	return t.name
}

// ContactName returns the name used in contact schedules, falling back to Name.
func (t *TwoLineElement) ContactName() string {
	if t.contactName == "" {
		return t.Name()
	}
	return t.contactName
}

// ReceiveFrequency returns the receive frequency in MHz, if known.
func (t *TwoLineElement) ReceiveFrequency() (float64, bool) { return t.rxFreq, t.hasRx }

// TransmitFrequency returns the transmit frequency in MHz, if known.
func (t *TwoLineElement) TransmitFrequency() (float64, bool) { return t.txFreq, t.hasTx }

// Epoch returns the element set epoch in UTC.
func (t *TwoLineElement) Epoch() time.Time { return t.elements.EpochTime() }

// Field returns the raw column text of a field, for display.
func (t *TwoLineElement) Field(f ElementField) string {
	if f < 0 || int(f) >= len(fieldColumns) {
		return ""
	}
	c := fieldColumns[f]
	if c.line == 1 {
		return t.line1[c.start:c.end]
	}
	return t.line2[c.start:c.end]
}

// RawString returns the optional name line followed by the two element lines.
func (t *TwoLineElement) RawString() string {
	if t.name == "" {
		return t.line1 + "\n" + t.line2
	}
	return t.name + "\n" + t.line1 + "\n" + t.line2
}

// String returns a multi-line summary of the element set and its derived
// orbit.
func (t *TwoLineElement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Satellite Name=%s", t.Name())
	if t.hasRx {
		fmt.Fprintf(&b, ", Receive Frequency %g", t.rxFreq)
	}
	if t.hasTx {
		fmt.Fprintf(&b, ", Transmit Frequency %g", t.txFreq)
	}
	e := t.elements
	fmt.Fprintf(&b, "\nSatellite Number=%d, Launch Year=%d, Launch Number=%d, Launch Piece=%s",
		e.SatelliteNumber, e.LaunchYear, e.LaunchNumber, e.LaunchPiece)
	fmt.Fprintf(&b, "\nEpoch=%s, Mean Motion Dot=%g, Mean Motion Double Dot=%g, BSTAR=%g, Element Number=%d",
		e.EpochTime().Format(time.RFC3339), e.MeanMotionDot, e.MeanMotionDot2, e.Bstar, e.ElementNumber)
	fmt.Fprintf(&b, "\nInclination=%.4f, RAAN=%.4f, Eccentricity=%.7f", e.Inclination, e.RightAscension, e.Eccentricity)
	fmt.Fprintf(&b, "\nArgument of Perigee=%.4f, Mean Anomaly=%.4f", e.ArgOfPerigee, e.MeanAnomaly)
	fmt.Fprintf(&b, "\nMean Motion=%.8f, Rev at Epoch=%d", e.MeanMotion, e.RevolutionNumber)
	fmt.Fprintf(&b, "\nSemi-major Axis=%.1f km, Period=%s, Geostationary=%t",
		e.SemiMajorAxis(), e.Period().Round(time.Second), e.IsGeostationary())
	return b.String()
}

func (e *Elements) parseLine1(line string) error {
	if line[0] != '1' {
		return malformed(0, 1, "line must begin with '1'", nil)
	}

	var err error
	e.SatelliteNumber, err = strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return malformed(0, 1, "invalid satellite number", err)
	}
	fail := func(reason string, err error) error {
		return malformed(e.SatelliteNumber, 1, reason, err)
	}

	e.Classification = rune(line[7])

	// International designator, blank for analyst objects
	if ly := strings.TrimSpace(line[9:11]); ly != "" {
		yy, err := strconv.Atoi(ly)
		if err != nil {
			return fail("invalid launch year", err)
		}
		e.LaunchYear = fullYear(yy)
		if ln := strings.TrimSpace(line[11:14]); ln != "" {
			if e.LaunchNumber, err = strconv.Atoi(ln); err != nil {
				return fail("invalid launch number", err)
			}
		}
	}
	e.LaunchPiece = strings.TrimSpace(line[14:17])

	yy, err := strconv.Atoi(strings.TrimSpace(line[18:20]))
	if err != nil {
		return fail("invalid epoch year", err)
	}
	e.EpochYear = fullYear(yy)

	e.EpochDay, err = strconv.ParseFloat(strings.TrimSpace(line[20:32]), 64)
	if err != nil {
		return fail("invalid epoch day", err)
	}

	// " .00007749" and "-.00007749" both parse with an implicit leading zero
	e.MeanMotionDot, err = strconv.ParseFloat(strings.TrimSpace(line[33:43]), 64)
	if err != nil {
		return fail(fmt.Sprintf("invalid mean motion dot (%q)", line[33:43]), err)
	}

	e.MeanMotionDot2, err = parseAssumedDecimal(line[44:50], line[50:52])
	if err != nil {
		return fail(fmt.Sprintf("invalid mean motion double dot (%q)", line[44:52]), err)
	}

	e.Bstar, err = parseAssumedDecimal(line[53:59], line[59:61])
	if err != nil {
		return fail(fmt.Sprintf("invalid B* (%q)", line[53:61]), err)
	}

	e.ElementNumber, err = strconv.Atoi(strings.TrimSpace(line[64:68]))
	if err != nil {
		return fail("invalid element number", err)
	}
	return nil
}

func (e *Elements) parseLine2(line string) error {
	fail := func(reason string, err error) error {
		return malformed(e.SatelliteNumber, 2, reason, err)
	}
	if line[0] != '2' {
		return fail("line must begin with '2'", nil)
	}

	satNum, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return fail("invalid satellite number", err)
	}
	if satNum != e.SatelliteNumber {
		return fail(fmt.Sprintf("satellite numbers do not match between lines (%d vs %d)", e.SatelliteNumber, satNum), nil)
	}

	floats := []struct {
		dst   *float64
		field ElementField
		name  string
	}{
		{&e.Inclination, FieldInclination, "inclination"},
		{&e.RightAscension, FieldRightAscension, "right ascension"},
		{&e.ArgOfPerigee, FieldArgOfPerigee, "argument of perigee"},
		{&e.MeanAnomaly, FieldMeanAnomaly, "mean anomaly"},
		{&e.MeanMotion, FieldMeanMotion, "mean motion"},
	}
	for _, fl := range floats {
		c := fieldColumns[fl.field]
		if *fl.dst, err = strconv.ParseFloat(strings.TrimSpace(line[c.start:c.end]), 64); err != nil {
			return fail("invalid "+fl.name, err)
		}
	}

	// Eccentricity (decimal point assumed: XXXXXXX -> 0.XXXXXXX)
	eccStr := strings.TrimSpace(line[26:33])
	if eccStr == "" || strings.ContainsAny(eccStr, "+-.") {
		return fail(fmt.Sprintf("invalid eccentricity (%q)", line[26:33]), nil)
	}
	if e.Eccentricity, err = strconv.ParseFloat("0."+eccStr, 64); err != nil {
		return fail(fmt.Sprintf("invalid eccentricity (%q)", line[26:33]), err)
	}

	e.RevolutionNumber, err = strconv.Atoi(strings.TrimSpace(line[63:68]))
	if err != nil {
		return fail("invalid revolution number", err)
	}
	return nil
}

// parseAssumedDecimal reads a " SXXXXX" mantissa with an assumed leading
// decimal point and a "±E" exponent, e.g. " 14567" "-3" -> 0.14567e-3.
func parseAssumedDecimal(mantissa, exponent string) (float64, error) {
	m, err := strconv.ParseFloat(strings.TrimSpace(mantissa), 64)
	if err != nil {
		return 0, err
	}
	exp, err := strconv.ParseInt(strings.TrimSpace(exponent), 10, 64)
	if err != nil {
		return 0, err
	}
	return m * 1e-5 * math.Pow(10, float64(exp)), nil
}

// fullYear expands a two digit year: YY < 57 represents 20YY, otherwise 19YY.
func fullYear(yy int) int {
	if yy < 57 {
		return 2000 + yy
	}
	return 1900 + yy
}

// calculateChecksum calculates the modulo-10 checksum of the first 68
// characters of a line. Digits count their value, '-' counts as 1, all other
// characters are ignored.
func calculateChecksum(line string) int {
	sum := 0
	for i := range tleLineLength - 1 {
		char := line[i]
		if char >= '0' && char <= '9' {
			sum += int(char - '0')
		} else if char == '-' {
			sum++
		}
	}
	return sum % 10
}
