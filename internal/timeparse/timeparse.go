// Package timeparse converts the textual time-of-day column of recorded
// market events into comparable time values with microsecond precision.
package timeparse

import (
	"fmt"
	"time"
)

const (
	// LayoutMicros matches the full fractional form, e.g. "09:31:15.250000".
	LayoutMicros = "15:04:05.000000"

	// LayoutSeconds matches the plain form, e.g. "09:31:15". When parsing,
	// Go also accepts a trailing fractional second of any length here, so
	// values like "09:30:01.5" resolve through this layout.
	LayoutSeconds = "15:04:05"
)

// MalformedTimestampError reports a time value that matches neither accepted
// layout.
type MalformedTimestampError struct {
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q (want HH:MM:SS.ffffff or HH:MM:SS)", e.Value)
}

// Clock parses a time-of-day string in either accepted layout. The two
// encodings of the same instant ("09:30:00.000000" and "09:30:00") yield
// equal values. Pure function, no side effects.
func Clock(s string) (time.Time, error) {
	if t, err := time.Parse(LayoutMicros, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(LayoutSeconds, s)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: s}
	}
	return t, nil
}
