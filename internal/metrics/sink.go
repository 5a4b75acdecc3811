package metrics

import (
	"time"

	"marketreplay/internal/model"
	"marketreplay/internal/timeparse"
)

// Sink adapts Metrics and HealthStatus to the replay diagnostic interface,
// keeping the scheduler decoupled from Prometheus. Either field may be nil.
type Sink struct {
	M *Metrics
	H *HealthStatus
}

func (s Sink) AnchorSet(_, _ time.Time) {
	if s.H != nil {
		s.H.SetState("replaying")
	}
}

func (s Sink) Published(_ int, sourceTime time.Time, lag time.Duration, _ []byte, _ model.Event) {
	if s.M != nil {
		s.M.EventsPublished.Inc()
		s.M.DispatchLag.Observe(lag.Seconds())
	}
	if s.H != nil {
		s.H.RecordPublished(sourceTime.Format(timeparse.LayoutMicros))
	}
}

func (s Sink) Skipped(_ int, _ string, _ error) {
	if s.M != nil {
		s.M.EventsSkipped.Inc()
	}
	if s.H != nil {
		s.H.RecordSkipped()
	}
}

func (s Sink) Done(_, _ int) {
	if s.H != nil {
		s.H.SetState("done")
	}
}
