// cmd/recorder — Captures replayed events from Redis pub/sub into SQLite.
//
// Subscribes to replay channels by pattern and persists every event under its
// session ID, so a later replayd run can replay the capture with
// REPLAY_SOURCE=sqlite.
//
// Config (env vars):
//
//	REDIS_ADDR    — Redis address            (default: "localhost:6379")
//	REDIS_PATTERN — channel pattern          (default: "pub:replay:*")
//	SQLITE_PATH   — capture database path    (default: "data/replay.db")
//	TIME_FIELD    — record time column       (default: "Time")
//	SYMBOL_FIELD  — record symbol column     (default: "Symbol")
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goredis "github.com/go-redis/redis/v8"

	sqlitestore "marketreplay/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[recorder] starting...")

	redisAddr := envOrDefault("REDIS_ADDR", "localhost:6379")
	pattern := envOrDefault("REDIS_PATTERN", "pub:replay:*")
	sqlitePath := envOrDefault("SQLITE_PATH", "data/replay.db")
	timeField := envOrDefault("TIME_FIELD", "Time")
	symbolField := envOrDefault("SYMBOL_FIELD", "Symbol")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[recorder] received signal %v, shutting down...", sig)
		cancel()
	}()

	// ---- SQLite writer (batched, off the subscribe path) ----
	os.MkdirAll("data", 0o755)
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: sqlitePath})
	if err != nil {
		log.Fatalf("[recorder] sqlite init failed: %v", err)
	}
	defer writer.Close()

	capCh := make(chan sqlitestore.Captured, 1000)
	writerDone := make(chan struct{})
	go func() {
		writer.Run(ctx, capCh)
		close(writerDone)
	}()

	// ---- Redis subscription ----
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("[recorder] redis ping failed: %v", err)
	}

	pubsub := rdb.PSubscribe(ctx, pattern)
	defer pubsub.Close()
	log.Printf("[recorder] subscribed to %s on %s", pattern, redisAddr)

	ch := pubsub.Channel()
	captured := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-ch:
			if !ok {
				break loop
			}

			var fields map[string]string
			if err := json.Unmarshal([]byte(msg.Payload), &fields); err != nil {
				log.Printf("[recorder] skipping unparseable payload on %s: %v", msg.Channel, err)
				continue
			}

			rec := sqlitestore.Captured{
				Session:   sessionFromChannel(msg.Channel),
				EventTime: fields[timeField],
				Symbol:    fields[symbolField],
				Payload:   []byte(msg.Payload),
			}
			select {
			case capCh <- rec:
				captured++
			case <-ctx.Done():
				break loop
			}
		}
	}

	close(capCh)
	<-writerDone
	log.Printf("[recorder] done: %d events captured", captured)
}

// sessionFromChannel extracts the session ID from "pub:replay:<session>".
func sessionFromChannel(channel string) string {
	if i := strings.LastIndex(channel, ":"); i >= 0 {
		return channel[i+1:]
	}
	return channel
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
