package publish

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(msg)
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(":0", 10)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	if err := h.Publish(context.Background(), []byte(`{"Symbol":"MSFT"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got := readMessage(t, conn); got != `{"Symbol":"MSFT"}` {
		t.Errorf("received %q", got)
	}
}

func TestHub_BackfillOnConnect(t *testing.T) {
	h := NewHub(":0", 10)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	// Publish before any subscriber exists.
	for _, p := range []string{"one", "two", "three"} {
		if err := h.Publish(context.Background(), []byte(p)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	conn := dialHub(t, srv)
	defer conn.Close()

	for _, want := range []string{"one", "two", "three"} {
		if got := readMessage(t, conn); got != want {
			t.Errorf("backfill message = %q, want %q", got, want)
		}
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	h := NewHub(":0", 10)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	a := dialHub(t, srv)
	defer a.Close()
	b := dialHub(t, srv)
	defer b.Close()
	waitForClients(t, h, 2)

	if err := h.Publish(context.Background(), []byte("tick")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got := readMessage(t, a); got != "tick" {
		t.Errorf("subscriber a got %q", got)
	}
	if got := readMessage(t, b); got != "tick" {
		t.Errorf("subscriber b got %q", got)
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := NewHub(":0", 10)
	// No server, no clients: publish must still succeed (fire-and-forget).
	if err := h.Publish(context.Background(), []byte("tick")); err != nil {
		t.Fatalf("Publish with no subscribers: %v", err)
	}
}

func TestHub_ClientCountTracksDisconnect(t *testing.T) {
	h := NewHub(":0", 10)
	var counts []int
	h.OnClients = func(n int) { counts = append(counts, n) }
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, h, 1)
	conn.Close()

	// The write pump only notices the disconnect on a failed write, so keep
	// publishing until the client falls away.
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never unregistered")
		}
		h.Publish(context.Background(), []byte("ping"))
		time.Sleep(5 * time.Millisecond)
	}
	if len(counts) < 2 || counts[len(counts)-1] != 0 {
		t.Errorf("OnClients calls = %v, want final 0", counts)
	}
}
