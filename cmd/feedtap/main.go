// cmd/feedtap — Console subscriber for the replay hub.
//
// Connects to replayd's WebSocket endpoint and prints each replayed event,
// optionally filtered to a comma-separated symbol watchlist. Useful as a
// stand-in for strategy engines or dashboards when eyeballing a replay.
//
// Config (env vars):
//
//	FEED_URL      — hub WebSocket URL       (default: "ws://localhost:5555/ws")
//	SYMBOL_FIELD  — record symbol column    (default: "Symbol")
//	WATCH_SYMBOLS — comma-separated filter  (default: print everything)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 2 * time.Second

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	url := envOrDefault("FEED_URL", "ws://localhost:5555/ws")
	symbolField := envOrDefault("SYMBOL_FIELD", "Symbol")
	watch := parseWatch(os.Getenv("WATCH_SYMBOLS"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Printf("[feedtap] connecting to %s", url)
	for {
		err := runOnce(ctx, url, symbolField, watch)
		if err == nil {
			return // context cancelled
		}
		log.Printf("[feedtap] disconnected (%v), reconnecting in %s...", err, reconnectDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// runOnce dials the hub and prints events until the connection drops or the
// context is cancelled. A nil return means clean shutdown.
func runOnce(ctx context.Context, url, symbolField string, watch map[string]struct{}) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[feedtap] connected")

	// Unblock ReadMessage on shutdown.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if len(watch) > 0 {
			var fields map[string]string
			if err := json.Unmarshal(msg, &fields); err != nil {
				continue
			}
			if _, ok := watch[fields[symbolField]]; !ok {
				continue
			}
		}
		fmt.Println(string(msg))
	}
}

func parseWatch(s string) map[string]struct{} {
	if s == "" {
		return nil
	}
	watch := make(map[string]struct{})
	for _, sym := range strings.Split(s, ",") {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			watch[sym] = struct{}{}
		}
	}
	return watch
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
