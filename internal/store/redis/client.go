// Package redis holds the Redis-backed pieces of the signal service: a TTL
// cache for fetched bar series and a publisher for evaluated signal rows.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Connect creates a client and pings the server.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	slog.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}

// Key helpers. Intervals and tickers never contain ':'.
func barsKey(interval, ticker string) string   { return "bars:" + interval + ":" + ticker }
func latestKey(interval, ticker string) string { return "signal:latest:" + interval + ":" + ticker }

// Channel returns the pub/sub channel carrying a ticker's evaluations.
func Channel(interval, ticker string) string { return "pub:signal:" + interval + ":" + ticker }
