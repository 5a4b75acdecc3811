package publish

import "sync"

// backlogEntry holds a single published payload.
type backlogEntry struct {
	Seq  int64
	Data []byte
}

// Backlog is a fixed-size circular buffer of recently published payloads.
// New WebSocket subscribers receive its contents on connect so a mid-replay
// join still sees recent history.
//
// Thread-safe for concurrent writes and reads.
type Backlog struct {
	mu   sync.RWMutex
	buf  []backlogEntry
	cap  int
	pos  int // next write position
	full bool
	seq  int64
}

// NewBacklog creates a backlog with the given capacity.
func NewBacklog(capacity int) *Backlog {
	if capacity <= 0 {
		capacity = 500
	}
	return &Backlog{
		buf: make([]backlogEntry, capacity),
		cap: capacity,
	}
}

// Push appends a payload, overwriting the oldest entry when full. Returns the
// assigned monotonic sequence number (starting at 1).
func (b *Backlog) Push(data []byte) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Copy so the buffer never aliases the caller's slice
	cp := make([]byte, len(data))
	copy(cp, data)

	b.seq++
	b.buf[b.pos] = backlogEntry{Seq: b.seq, Data: cp}
	b.pos = (b.pos + 1) % b.cap
	if b.pos == 0 && !b.full {
		b.full = true
	}
	return b.seq
}

// Recent returns up to n payloads in publish order, ending with the newest.
func (b *Backlog) Recent(n int) [][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.len()
	if n > count {
		n = count
	}
	if n <= 0 {
		return nil
	}

	out := make([][]byte, 0, n)
	for i := count - n; i < count; i++ {
		out = append(out, b.buf[b.index(i)].Data)
	}
	return out
}

// Len returns the number of entries currently buffered.
func (b *Backlog) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.len()
}

// Cap returns the backlog capacity.
func (b *Backlog) Cap() int { return b.cap }

// len returns the entry count. Caller must hold the lock.
func (b *Backlog) len() int {
	if b.full {
		return b.cap
	}
	return b.pos
}

// index maps logical position i (0 = oldest) to a buffer index.
// Caller must hold the lock.
func (b *Backlog) index(i int) int {
	if !b.full {
		return i
	}
	return (b.pos + i) % b.cap
}
