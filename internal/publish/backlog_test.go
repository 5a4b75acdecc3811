package publish

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBacklog_Recent(t *testing.T) {
	b := NewBacklog(100)

	for i := 1; i <= 10; i++ {
		b.Push([]byte(fmt.Sprintf("msg-%d", i)))
	}

	got := b.Recent(3)
	if len(got) != 3 {
		t.Fatalf("Recent(3): expected 3, got %d", len(got))
	}
	for i, want := range []string{"msg-8", "msg-9", "msg-10"} {
		if string(got[i]) != want {
			t.Errorf("entry[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestBacklog_Wraparound(t *testing.T) {
	b := NewBacklog(5) // tiny buffer

	// Push 8 entries — first 3 should be evicted
	for i := 1; i <= 8; i++ {
		b.Push([]byte(fmt.Sprintf("msg-%d", i)))
	}

	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}

	got := b.Recent(10)
	if len(got) != 5 {
		t.Fatalf("Recent(10): expected 5, got %d", len(got))
	}
	if string(got[0]) != "msg-4" {
		t.Errorf("oldest entry = %q, want msg-4", got[0])
	}
	if string(got[4]) != "msg-8" {
		t.Errorf("newest entry = %q, want msg-8", got[4])
	}
}

func TestBacklog_Empty(t *testing.T) {
	b := NewBacklog(10)
	if got := b.Recent(100); len(got) != 0 {
		t.Fatalf("empty backlog Recent should return 0, got %d", len(got))
	}
}

func TestBacklog_CopiesPayload(t *testing.T) {
	b := NewBacklog(10)
	payload := []byte("original")
	b.Push(payload)
	payload[0] = 'X'

	got := b.Recent(1)
	if !bytes.Equal(got[0], []byte("original")) {
		t.Errorf("backlog aliased the caller's slice: %q", got[0])
	}
}

func TestBacklog_SequenceNumbers(t *testing.T) {
	b := NewBacklog(4)
	for i := 1; i <= 3; i++ {
		if seq := b.Push([]byte("m")); seq != int64(i) {
			t.Errorf("push %d assigned seq %d", i, seq)
		}
	}
}
