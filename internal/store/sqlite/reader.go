package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"marketreplay/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to captured events for replay.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadEvents loads captured events ordered by capture sequence, which is the
// original publish order. An empty session selects every session. Event
// positions are renumbered 0-based over the returned slice.
func (r *Reader) ReadEvents(session string) ([]model.Event, error) {
	query := `SELECT payload FROM events ORDER BY seq ASC`
	args := []any{}
	if session != "" {
		query = `SELECT payload FROM events WHERE session = ? ORDER BY seq ASC`
		args = append(args, session)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("sqlite scan event: %w", err)
		}
		fields := map[string]string{}
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("sqlite event payload: %w", err)
		}
		events = append(events, model.Event{Pos: len(events), Fields: fields})
	}
	return events, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error { return r.db.Close() }
