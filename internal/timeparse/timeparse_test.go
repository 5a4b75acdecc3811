package timeparse

import (
	"errors"
	"testing"
	"time"
)

func TestClock_FormatEquivalence(t *testing.T) {
	full, err := Clock("09:30:00.000000")
	if err != nil {
		t.Fatalf("full form: %v", err)
	}
	plain, err := Clock("09:30:00")
	if err != nil {
		t.Fatalf("plain form: %v", err)
	}
	if !full.Equal(plain) {
		t.Errorf("expected %v == %v", full, plain)
	}
}

func TestClock_MicrosecondPrecision(t *testing.T) {
	got, err := Clock("09:31:15.250000")
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	base, _ := Clock("09:31:15")
	if d := got.Sub(base); d != 250*time.Millisecond {
		t.Errorf("fraction: got %v, want 250ms", d)
	}
}

func TestClock_ShortFraction(t *testing.T) {
	// strptime-style %f accepts fewer than six digits
	got, err := Clock("09:30:01.5")
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	base, _ := Clock("09:30:00")
	if d := got.Sub(base); d != 1500*time.Millisecond {
		t.Errorf("elapsed: got %v, want 1.5s", d)
	}
}

func TestClock_Subtraction(t *testing.T) {
	a, _ := Clock("09:30:00")
	b, _ := Clock("09:30:03")
	if d := b.Sub(a); d != 3*time.Second {
		t.Errorf("elapsed: got %v, want 3s", d)
	}
}

func TestClock_Malformed(t *testing.T) {
	cases := []string{
		"bad-time",
		"",
		"9:30",
		"09:30:00x",
		"2021-01-04 09:30:00",
		"25:99:99",
	}
	for _, in := range cases {
		_, err := Clock(in)
		if err == nil {
			t.Errorf("Clock(%q): expected error", in)
			continue
		}
		var merr *MalformedTimestampError
		if !errors.As(err, &merr) {
			t.Errorf("Clock(%q): expected MalformedTimestampError, got %T", in, err)
		} else if merr.Value != in {
			t.Errorf("Clock(%q): error carries value %q", in, merr.Value)
		}
	}
}
