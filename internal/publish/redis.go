package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis transport.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	Channel  string // e.g. "pub:replay:<session>"
}

// Redis publishes each payload to a Redis pub/sub channel, mirroring the hub
// for consumers that prefer Redis (cmd/recorder among them).
type Redis struct {
	client  *goredis.Client
	channel string
}

// NewRedis creates a Redis transport and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Redis{client: client, channel: cfg.Channel}, nil
}

// Channel returns the pub/sub channel name.
func (r *Redis) Channel() string { return r.channel }

// Client returns the underlying Redis client for health checks.
func (r *Redis) Client() *goredis.Client { return r.client }

// Publish sends the payload to the configured channel.
func (r *Redis) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *Redis) Close() error { return r.client.Close() }
