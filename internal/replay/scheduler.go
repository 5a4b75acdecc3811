// Package replay contains the core pacing logic: it maps each record's
// recorded time-of-day onto a wall-clock deadline anchored at the first
// successfully parsed record, waits out the gap, and dispatches records to
// the publisher in strict source order.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"marketreplay/internal/publish"
	"marketreplay/internal/source"
	"marketreplay/internal/timeparse"
)

// Anchor links the time-of-day of the first parsed record to the wall-clock
// instant the replay started. It is set exactly once per session and
// immutable afterwards; every deadline is computed from it rather than from
// the previous record, so a slow dispatch never shifts later targets and
// rounding error cannot accumulate across the sequence.
type Anchor struct {
	SourceTime time.Time // parsed time of the first good record
	WallTime   time.Time // wall clock when that record was reached
}

// Options configures a replay session.
type Options struct {
	// TimeField names the record column holding the HH:MM:SS[.ffffff] value.
	// Defaults to "Time".
	TimeField string

	// Speed scales the pacing: 1.0 replays at recorded pace, 2.0 at double
	// speed, 0 disables waiting entirely. Negative values are treated as 0.
	Speed float64
}

// Scheduler replays one source sequence. It runs a single sequential control
// loop: strict in-order dispatch with one deadline in flight at a time is
// the invariant the whole system exists to preserve, so dispatch is never
// parallelized.
type Scheduler struct {
	src  source.Source
	pub  publish.Publisher
	sink Sink
	opts Options

	anchor    *Anchor
	published int
	skipped   int

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scheduler. A nil sink discards diagnostics.
func New(src source.Source, pub publish.Publisher, sink Sink, opts Options) *Scheduler {
	if sink == nil {
		sink = NopSink{}
	}
	if opts.TimeField == "" {
		opts.TimeField = "Time"
	}
	if opts.Speed < 0 {
		opts.Speed = 0
	}
	return &Scheduler{
		src:   src,
		pub:   pub,
		sink:  sink,
		opts:  opts,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Anchor returns the session anchor, or nil while still awaiting the first
// parseable record.
func (s *Scheduler) Anchor() *Anchor { return s.anchor }

// Counts returns how many records have been published and skipped so far.
func (s *Scheduler) Counts() (published, skipped int) {
	return s.published, s.skipped
}

// Run replays the full sequence. It returns nil on normal exhaustion, the
// context error when cancelled mid-wait, and the underlying error on a
// source read or publish failure. Records whose time field is missing or
// fails to parse are skipped with a diagnostic; they never reach the
// publisher and never establish the anchor.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		ev, err := s.src.Next()
		if errors.Is(err, io.EOF) {
			s.sink.Done(s.published, s.skipped)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}

		raw, ok := ev.Field(s.opts.TimeField)
		var t time.Time
		if ok {
			t, err = timeparse.Clock(raw)
		} else {
			err = fmt.Errorf("missing time field %q", s.opts.TimeField)
		}
		if err != nil {
			s.skipped++
			s.sink.Skipped(ev.Pos, raw, err)
			continue
		}

		if s.anchor == nil {
			s.anchor = &Anchor{SourceTime: t, WallTime: s.now()}
			s.sink.AnchorSet(s.anchor.SourceTime, s.anchor.WallTime)
		}

		deadline := s.deadline(t)
		if wait := deadline.Sub(s.now()); wait > 0 {
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
		}
		// wait <= 0 means we are behind schedule (or the input time moved
		// backwards): dispatch immediately, never drop, never reorder.

		payload := ev.JSON()
		if err := s.pub.Publish(ctx, payload); err != nil {
			return fmt.Errorf("publish record %d: %w", ev.Pos, err)
		}
		s.published++
		s.sink.Published(ev.Pos, t, s.now().Sub(deadline), payload, ev)
	}
}

// deadline maps a record time onto the wall clock: anchor wall time plus the
// source-time elapsed since the anchor, scaled by Speed. Speed 0 collapses
// every deadline onto the anchor so the loop never waits.
func (s *Scheduler) deadline(t time.Time) time.Time {
	if s.opts.Speed == 0 {
		return s.anchor.WallTime
	}
	elapsed := t.Sub(s.anchor.SourceTime)
	if s.opts.Speed != 1 {
		elapsed = time.Duration(float64(elapsed) / s.opts.Speed)
	}
	return s.anchor.WallTime.Add(elapsed)
}

// sleepCtx waits d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
