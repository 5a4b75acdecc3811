// Package metrics exposes Prometheus metrics and a health endpoint for the
// replay daemon.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the replay daemon.
type Metrics struct {
	EventsPublished prometheus.Counter
	EventsSkipped   prometheus.Counter
	DispatchLag     prometheus.Histogram
	WSClients       prometheus.Gauge
	SubscriberDrops prometheus.Counter
	RedisPublishDur prometheus.Histogram
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_events_published_total",
			Help: "Total events dispatched to the publisher",
		}),
		EventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_events_skipped_total",
			Help: "Records skipped due to malformed timestamps",
		}),
		DispatchLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "replay_dispatch_lag_seconds",
			Help:    "Drift between a record's deadline and its actual dispatch",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_ws_clients",
			Help: "Currently connected WebSocket subscribers",
		}),
		SubscriberDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_subscriber_drops_total",
			Help: "Payloads dropped for slow WebSocket subscribers",
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "replay_redis_publish_duration_seconds",
			Help:    "Redis publish latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(
		m.EventsPublished,
		m.EventsSkipped,
		m.DispatchLag,
		m.WSClients,
		m.SubscriberDrops,
		m.RedisPublishDur,
	)

	return m
}

// HealthStatus represents the replay daemon's health.
type HealthStatus struct {
	mu sync.RWMutex

	SessionID      string
	SourceLoaded   bool
	HubBound       bool
	RedisConnected bool
	State          string // "awaiting_anchor", "replaying", "done"
	Published      int
	Skipped        int
	LastEventTime  string
	StartedAt      time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		State:     "awaiting_anchor",
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetSessionID(id string) {
	h.mu.Lock()
	h.SessionID = id
	h.mu.Unlock()
}

func (h *HealthStatus) SetSourceLoaded(v bool) {
	h.mu.Lock()
	h.SourceLoaded = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetHubBound(v bool) {
	h.mu.Lock()
	h.HubBound = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetState(s string) {
	h.mu.Lock()
	h.State = s
	h.mu.Unlock()
}

func (h *HealthStatus) RecordPublished(sourceTime string) {
	h.mu.Lock()
	h.Published++
	h.LastEventTime = sourceTime
	h.mu.Unlock()
}

func (h *HealthStatus) RecordSkipped() {
	h.mu.Lock()
	h.Skipped++
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SourceLoaded || !h.HubBound {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status          string `json:"status"`
		Uptime          string `json:"uptime"`
		SessionID       string `json:"session_id"`
		SourceLoaded    bool   `json:"source_loaded"`
		HubBound        bool   `json:"hub_bound"`
		RedisConnected  bool   `json:"redis_connected"`
		State           string `json:"state"`
		EventsPublished int    `json:"events_published"`
		EventsSkipped   int    `json:"events_skipped"`
		LastEventTime   string `json:"last_event_time"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		SessionID:       h.SessionID,
		SourceLoaded:    h.SourceLoaded,
		HubBound:        h.HubBound,
		RedisConnected:  h.RedisConnected,
		State:           h.State,
		EventsPublished: h.Published,
		EventsSkipped:   h.Skipped,
		LastEventTime:   h.LastEventTime,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
