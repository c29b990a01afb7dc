package inview

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedElementSet is matched by every MalformedElementSetError.
var ErrMalformedElementSet = errors.New("malformed element set")

// ErrPropagation is matched by every PropagationError.
var ErrPropagation = errors.New("propagation failure")

// MalformedElementSetError is returned when a two-line element set cannot be
// located or parsed for the requested satellite.
type MalformedElementSetError struct {
	SatelliteNumber int    // 0 when the number itself could not be read
	Line            int    // 1 or 2, 0 when the failure is not tied to a line
	Reason          string // what was wrong
	Err             error  // underlying parse error, if any
}

// Error returns the error message for MalformedElementSetError.
func (e *MalformedElementSetError) Error() string {
	msg := "malformed element set"
	if e.SatelliteNumber != 0 {
		msg = fmt.Sprintf("%s for satellite %d", msg, e.SatelliteNumber)
	}
	if e.Line != 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedElementSetError) Unwrap() error { return e.Err }

func (e *MalformedElementSetError) Is(target error) bool { return target == ErrMalformedElementSet }

// PropagationError is returned when the propagator cannot produce a state for
// the requested instant, typically a decayed or numerically invalid orbit.
type PropagationError struct {
	SatelliteNumber int
	Time            time.Time
	Err             error
}

// Error returns the error message for PropagationError.
func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation failed for satellite %d at %s: %v",
		e.SatelliteNumber, e.Time.UTC().Format(time.RFC3339), e.Err)
}

func (e *PropagationError) Unwrap() error { return e.Err }

func (e *PropagationError) Is(target error) bool { return target == ErrPropagation }

func malformed(satNum, line int, reason string, err error) *MalformedElementSetError {
	return &MalformedElementSetError{SatelliteNumber: satNum, Line: line, Reason: reason, Err: err}
}
