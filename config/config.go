// Package config loads replay daemon configuration from environment
// variables, plus the optional YAML watchlist used to filter console output.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Record source
	SourceKind    string // "csv" or "sqlite"
	CSVPath       string
	SQLitePath    string
	SQLiteSession string // capture session to replay; "" = all

	// Record shape
	TimeField   string
	SymbolField string

	// Transports
	WSAddr             string
	RedisAddr          string // "" disables the Redis transport
	RedisPassword      string
	RedisChannelPrefix string

	// Observability
	MetricsAddr string
	LogLevel    string

	// Pacing
	Speed       float64 // 1.0 = recorded pace, 0 = as fast as possible
	BacklogSize int

	// Optional console filter
	WatchlistPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		SourceKind:    getEnv("REPLAY_SOURCE", "csv"),
		CSVPath:       getEnv("REPLAY_CSV_PATH", "data/market.csv"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/replay.db"),
		SQLiteSession: getEnv("REPLAY_SESSION", ""),

		TimeField:   getEnv("TIME_FIELD", "Time"),
		SymbolField: getEnv("SYMBOL_FIELD", "Symbol"),

		WSAddr:             getEnv("WS_ADDR", ":5555"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "pub:replay"),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Speed:       getEnvFloat("REPLAY_SPEED", 1.0),
		BacklogSize: getEnvInt("BACKLOG_SIZE", 500),

		WatchlistPath: getEnv("WATCHLIST_PATH", ""),
	}
}

// watchlistFile mirrors the YAML watchlist layout:
//
//	symbols:
//	  - MSFT
//	  - GME
type watchlistFile struct {
	Symbols []string `yaml:"symbols"`
}

// LoadWatchlist reads the optional YAML watchlist. An empty path returns
// nil, nil (no filtering).
func LoadWatchlist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var wl watchlistFile
	if err := yaml.Unmarshal(b, &wl); err != nil {
		return nil, fmt.Errorf("watchlist yaml: %w", err)
	}
	return wl.Symbols, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] skipping invalid int value for %s: %q", key, v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[config] skipping invalid float value for %s: %q", key, v)
	}
	return fallback
}
