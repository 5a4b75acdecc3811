// cmd/replayd — Market event replay publisher.
//
// Reads a recorded sequence of time-stamped market events (a CSV file or a
// SQLite capture) and republishes each event at its original relative pacing
// over a WebSocket broadcast hub, plus an optional Redis pub/sub channel.
// Downstream consumers see a time-accurate stream instead of an instantaneous
// dump of historical data.
//
// Config (env vars):
//
//	REPLAY_SOURCE        — "csv" or "sqlite"            (default: "csv")
//	REPLAY_CSV_PATH      — CSV file path                (default: "data/market.csv")
//	SQLITE_PATH          — capture database path        (default: "data/replay.db")
//	REPLAY_SESSION       — capture session to replay    (default: all)
//	TIME_FIELD           — record time column           (default: "Time")
//	SYMBOL_FIELD         — record symbol column         (default: "Symbol")
//	WS_ADDR              — hub bind address             (default: ":5555")
//	REDIS_ADDR           — Redis address, "" disables   (default: "localhost:6379")
//	REDIS_CHANNEL_PREFIX — pub/sub channel prefix       (default: "pub:replay")
//	METRICS_ADDR         — /metrics and /healthz addr   (default: ":9090")
//	REPLAY_SPEED         — pacing multiplier, 0 = fast  (default: "1.0")
//	WATCHLIST_PATH       — YAML console filter file     (default: none)
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketreplay/config"
	"marketreplay/internal/logger"
	"marketreplay/internal/metrics"
	"marketreplay/internal/publish"
	"marketreplay/internal/replay"
	"marketreplay/internal/source"
	"marketreplay/pkg/id"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[replayd] starting...")

	// ---- Load config from env ----
	cfg := config.Load()
	slogger := logger.Init("replayd", logger.ParseLevel(cfg.LogLevel))

	sessionID := id.New()
	log.Printf("[replayd] replay session %s", sessionID)

	watch, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		log.Fatalf("[replayd] watchlist load failed: %v", err)
	}
	if len(watch) > 0 {
		log.Printf("[replayd] console filter active: %d symbols", len(watch))
	}

	// ---- Setup metrics & health ----
	prom := metrics.New()
	health := metrics.NewHealthStatus()
	health.SetSessionID(sessionID)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[replayd] received signal %v, shutting down...", sig)
		cancel()
	}()

	// ---- Record source ----
	var src source.Source
	switch cfg.SourceKind {
	case "sqlite":
		src, err = source.OpenSQLite(cfg.SQLitePath, cfg.SQLiteSession)
	case "csv":
		src, err = source.OpenCSV(cfg.CSVPath)
	default:
		log.Fatalf("[replayd] unknown REPLAY_SOURCE %q (want csv or sqlite)", cfg.SourceKind)
	}
	if err != nil {
		log.Fatalf("[replayd] source init failed: %v", err)
	}
	defer src.Close()
	health.SetSourceLoaded(true)
	log.Printf("[replayd] %s source ready", cfg.SourceKind)

	// ---- WebSocket hub ----
	hub := publish.NewHub(cfg.WSAddr, cfg.BacklogSize)
	hub.OnDrop = func() { prom.SubscriberDrops.Inc() }
	hub.OnClients = func(n int) { prom.WSClients.Set(float64(n)) }
	hub.Start()
	health.SetHubBound(true)

	pubs := publish.Multi{hub}

	// ---- Optional Redis transport ----
	if cfg.RedisAddr != "" {
		rp, rerr := publish.NewRedis(publish.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannelPrefix + ":" + sessionID,
		})
		if rerr != nil {
			log.Printf("[replayd] WARNING: redis init failed: %v (continuing without redis)", rerr)
			health.SetRedisConnected(false)
		} else {
			defer rp.Close()
			health.SetRedisConnected(true)
			log.Printf("[replayd] publishing to redis channel %s", rp.Channel())
			pubs = append(pubs, timedRedis{rp, prom})
		}
	}

	// ---- Run the scheduler ----
	sink := replay.MultiSink{
		replay.NewLogSink(slogger, cfg.SymbolField, watch),
		metrics.Sink{M: prom, H: health},
	}

	sched := replay.New(src, pubs, sink, replay.Options{
		TimeField: cfg.TimeField,
		Speed:     cfg.Speed,
	})

	if err := sched.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("[replayd] replay cancelled")
		} else {
			log.Fatalf("[replayd] replay aborted: %v", err)
		}
	}

	// ---- Drain and stop ----
	published, skipped := sched.Counts()
	log.Printf("[replayd] done: %d published, %d skipped", published, skipped)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	hub.Stop(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
}

// timedRedis wraps the Redis transport to record publish latency.
type timedRedis struct {
	*publish.Redis
	prom *metrics.Metrics
}

func (t timedRedis) Publish(ctx context.Context, payload []byte) error {
	start := time.Now()
	err := t.Redis.Publish(ctx, payload)
	t.prom.RedisPublishDur.Observe(time.Since(start).Seconds())
	return err
}
