package source

import (
	"fmt"
	"io"

	"marketreplay/internal/model"
	sqlitestore "marketreplay/internal/store/sqlite"
)

// SQLite replays events previously captured by cmd/recorder, in capture order.
type SQLite struct {
	events []model.Event
	next   int
}

// OpenSQLite loads all captured events for the given session ("" = every
// session) from the store. The full sequence is read up front; a capture DB
// holds one trading day at most, which fits comfortably in memory.
func OpenSQLite(path, session string) (*SQLite, error) {
	reader, err := sqlitestore.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	events, err := reader.ReadEvents(session)
	if err != nil {
		return nil, fmt.Errorf("sqlite read events: %w", err)
	}
	return &SQLite{events: events}, nil
}

// Len returns the number of loaded events.
func (s *SQLite) Len() int { return len(s.events) }

// Next returns the next captured event. io.EOF signals end of the sequence.
func (s *SQLite) Next() (model.Event, error) {
	if s.next >= len(s.events) {
		return model.Event{}, io.EOF
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}

// Close is a no-op; the store connection is released at open time.
func (s *SQLite) Close() error { return nil }
