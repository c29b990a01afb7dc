package inview

import "time"

// Instant is a UTC instant with whole-second resolution. It is the only time
// value the engines accept, so timezone handling happens exactly once, in one
// of the two constructors.
type Instant struct {
	t time.Time
}

// FromAnyTimezone converts t, whatever its location, to the same instant in
// UTC. Sub-second precision is dropped.
func FromAnyTimezone(t time.Time) Instant {
	return Instant{t: t.UTC().Truncate(time.Second)}
}

// FromUTCNaive reads the wall clock of t as if it were UTC, ignoring the
// location attached to t. Use it for timestamps that were recorded in UTC but
// carry no (or a wrong) zone. Sub-second precision is dropped.
func FromUTCNaive(t time.Time) Instant {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Instant{t: time.Date(y, mo, d, h, mi, s, 0, time.UTC)}
}

// Time returns the instant as a UTC time.Time.
func (i Instant) Time() time.Time { return i.t }

// IsZero reports whether the instant was never set.
func (i Instant) IsZero() bool { return i.t.IsZero() }

// Before reports whether i is strictly before j.
func (i Instant) Before(j Instant) bool { return i.t.Before(j.t) }

// Sub returns i - j.
func (i Instant) Sub(j Instant) time.Duration { return i.t.Sub(j.t) }

// Add returns i shifted by d, truncated to whole seconds.
func (i Instant) Add(d time.Duration) Instant {
	return Instant{t: i.t.Add(d).Truncate(time.Second)}
}

func (i Instant) String() string { return i.t.Format(time.RFC3339) }
