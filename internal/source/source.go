// Package source provides the ordered, finite record sources the replay
// scheduler consumes: a CSV file with a header row, or events previously
// captured into SQLite by cmd/recorder.
package source

import "marketreplay/internal/model"

// Source produces events in original chronological order. Next returns io.EOF
// once the sequence is exhausted; any other error is a fatal read failure and
// aborts the replay session.
type Source interface {
	Next() (model.Event, error)
	Close() error
}
