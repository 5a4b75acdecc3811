package replay

import (
	"log/slog"
	"time"

	"marketreplay/internal/model"
	"marketreplay/internal/timeparse"
)

// Sink receives replay diagnostics. The scheduler calls it inline on the
// dispatch path, so implementations must not block.
type Sink interface {
	// AnchorSet fires once, when the replay anchor is established.
	AnchorSet(sourceTime, wallTime time.Time)

	// Published fires after each dispatched record. lag is actual dispatch
	// time minus the computed deadline (the observable drift).
	Published(pos int, sourceTime time.Time, lag time.Duration, payload []byte, ev model.Event)

	// Skipped fires for each record whose time field could not be parsed.
	Skipped(pos int, value string, err error)

	// Done fires once, when the source is exhausted.
	Done(published, skipped int)
}

// NopSink discards all diagnostics.
type NopSink struct{}

func (NopSink) AnchorSet(_, _ time.Time)                                     {}
func (NopSink) Published(int, time.Time, time.Duration, []byte, model.Event) {}
func (NopSink) Skipped(int, string, error)                                   {}
func (NopSink) Done(int, int)                                                {}

// LogSink writes structured replay diagnostics via slog. When watch is
// non-empty, only events whose symbol column value is in the set produce a
// per-record published line; anchor, skip and completion lines always log.
// The filter is purely cosmetic and never affects dispatch.
type LogSink struct {
	log         *slog.Logger
	symbolField string
	watch       map[string]struct{}
}

// NewLogSink creates a LogSink. watch may be nil to log every record.
func NewLogSink(log *slog.Logger, symbolField string, watch []string) *LogSink {
	s := &LogSink{log: log, symbolField: symbolField}
	if len(watch) > 0 {
		s.watch = make(map[string]struct{}, len(watch))
		for _, sym := range watch {
			s.watch[sym] = struct{}{}
		}
	}
	return s
}

func (s *LogSink) AnchorSet(sourceTime, wallTime time.Time) {
	s.log.Info("replay anchor set",
		slog.String("source_time", sourceTime.Format(timeparse.LayoutMicros)),
		slog.Time("wall_time", wallTime),
	)
}

func (s *LogSink) Published(pos int, sourceTime time.Time, lag time.Duration, payload []byte, ev model.Event) {
	if s.watch != nil {
		if _, ok := s.watch[ev.Symbol(s.symbolField)]; !ok {
			return
		}
	}
	s.log.Info("published",
		slog.Int("pos", pos),
		slog.String("source_time", sourceTime.Format(timeparse.LayoutMicros)),
		slog.Duration("lag", lag),
		slog.String("payload", string(payload)),
	)
}

func (s *LogSink) Skipped(pos int, value string, err error) {
	s.log.Warn("skipping record, bad time format",
		slog.Int("pos", pos),
		slog.String("value", value),
		slog.String("err", err.Error()),
	)
}

func (s *LogSink) Done(published, skipped int) {
	s.log.Info("replay complete",
		slog.Int("published", published),
		slog.Int("skipped", skipped),
	)
}

// MultiSink fans diagnostics out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) AnchorSet(sourceTime, wallTime time.Time) {
	for _, s := range m {
		s.AnchorSet(sourceTime, wallTime)
	}
}

func (m MultiSink) Published(pos int, sourceTime time.Time, lag time.Duration, payload []byte, ev model.Event) {
	for _, s := range m {
		s.Published(pos, sourceTime, lag, payload, ev)
	}
}

func (m MultiSink) Skipped(pos int, value string, err error) {
	for _, s := range m {
		s.Skipped(pos, value, err)
	}
}

func (m MultiSink) Done(published, skipped int) {
	for _, s := range m {
		s.Done(published, skipped)
	}
}
