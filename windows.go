package inview

import (
	"sort"
	"time"
)

// Interval is a UTC time span.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Interval returns the rise-to-set span of the window.
func (w InviewWindow) Interval() Interval { return Interval{Start: w.Rise, End: w.Set} }

// Interval returns the enter-to-exit span of the window.
func (w SunWindow) Interval() Interval { return Interval{Start: w.Enter, End: w.Exit} }

// Intersect returns the overlap of a and b. It reports false when the
// overlap is empty or a single instant.
func Intersect(a, b Interval) (Interval, bool) {
	out := Interval{Start: a.Start, End: a.End}
	if b.Start.After(out.Start) {
		out.Start = b.Start
	}
	if b.End.Before(out.End) {
		out.End = b.End
	}
	if !out.Start.Before(out.End) {
		return Interval{}, false
	}
	return out, true
}

// IntersectAll returns every non-empty overlap between a span of a and a
// span of b, in time order. Both inputs must be ordered and non-overlapping,
// as the engines return them.
func IntersectAll(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if x, ok := Intersect(a[i], b[j]); ok {
			out = append(out, x)
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// Union merges the spans of a and b, joining spans that overlap or touch.
func Union(a, b []Interval) []Interval {
	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	out := []Interval{all[0]}
	for _, iv := range all[1:] {
		last := &out[len(out)-1]
		if iv.Start.After(last.End) {
			out = append(out, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return out
}

// InviewIntervals converts windows to intervals.
func InviewIntervals(ws []InviewWindow) []Interval {
	out := make([]Interval, len(ws))
	for i, w := range ws {
		out[i] = w.Interval()
	}
	return out
}

// SunIntervals converts windows to intervals.
func SunIntervals(ws []SunWindow) []Interval {
	out := make([]Interval, len(ws))
	for i, w := range ws {
		out[i] = w.Interval()
	}
	return out
}
