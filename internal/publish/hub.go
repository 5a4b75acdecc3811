package publish

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const clientSendBuffer = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Hub is the WebSocket publish/subscribe transport. It binds an address,
// upgrades subscribers on /ws, and broadcasts each payload to every connected
// client. A slow client drops messages rather than stalling the replay loop.
type Hub struct {
	addr string

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte

	backlog *Backlog
	srv     *http.Server

	// OnDrop is called when a payload is dropped for a slow subscriber.
	OnDrop func()
	// OnClients is called with the client count after connect/disconnect.
	OnClients func(n int)
}

// NewHub creates a Hub bound to addr with the given backlog capacity.
func NewHub(addr string, backlogSize int) *Hub {
	h := &Hub{
		addr:    addr,
		clients: make(map[*websocket.Conn]chan []byte),
		backlog: NewBacklog(backlogSize),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.wsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"replayd"}`)
	})
	h.srv = &http.Server{Addr: addr, Handler: mux}

	return h
}

// Handler exposes the HTTP handler for tests.
func (h *Hub) Handler() http.Handler { return h.srv.Handler }

// Start launches the HTTP listener in a goroutine.
func (h *Hub) Start() {
	go func() {
		log.Printf("[hub] listening on %s (WebSocket: ws://localhost%s/ws)", h.addr, h.addr)
		if err := h.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[hub] server error: %v", err)
		}
	}()
}

// Stop shuts the listener down and disconnects all clients.
func (h *Hub) Stop(ctx context.Context) {
	h.srv.Shutdown(ctx)
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts the payload to every connected subscriber and records it
// in the backlog. Never blocks on a slow client.
func (h *Hub) Publish(_ context.Context, payload []byte) error {
	h.backlog.Push(payload)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- payload:
		default: // slow client — drop
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
	return nil
}

func (h *Hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, clientSendBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	n := len(h.clients)
	h.mu.Unlock()
	if h.OnClients != nil {
		h.OnClients(n)
	}
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

func (h *Hub) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade error: %v", err)
		return
	}
	log.Printf("[hub] client connected: %s", r.RemoteAddr)

	// Backfill before going live: payloads published between the backfill
	// and register are missed rather than duplicated.
	for _, msg := range h.backlog.Recent(h.backlog.Cap()) {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			return
		}
	}

	ch := h.register(conn)
	defer func() {
		h.unregister(conn)
		conn.Close()
		log.Printf("[hub] client disconnected: %s", r.RemoteAddr)
	}()

	// Write pump: sends payloads to this client until it falls away.
	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
