package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/replay.db"
}

// Captured is one replayed event awaiting persistence.
type Captured struct {
	Session   string // replay session ID the event was published under
	EventTime string // original time-of-day text, e.g. "09:30:01.500000"
	Symbol    string
	Payload   []byte // full field map JSON as published
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a SQLite Writer, initializes the database with WAL mode and the
// events schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer connection pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			session    TEXT NOT NULL,
			event_time TEXT NOT NULL,
			symbol     TEXT,
			payload    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_session ON events(session, seq);
	`)
	return err
}

// Run reads captured events from ch and inserts them in batched transactions.
// Flushes every batchSize events OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or ch is closed; pending events are flushed
// before returning.
func (w *Writer) Run(ctx context.Context, ch <-chan Captured) {
	batch := make([]Captured, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d events in %v", len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case ev, ok := <-ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= defaultBatchSize {
				flush()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (w *Writer) insertBatch(batch []Captured) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO events (session, event_time, symbol, payload)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range batch {
		if _, err := stmt.Exec(ev.Session, ev.EventTime, ev.Symbol, string(ev.Payload)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (w *Writer) Close() error { return w.db.Close() }
