// Package app assembles the dashboard's runtime stack from config.Config:
// the bar source chain, the Redis cache and publisher, and the SQLite archive.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"intraday-signals/config"
	"intraday-signals/internal/feed"
	"intraday-signals/internal/metrics"
	redisstore "intraday-signals/internal/store/redis"
	"intraday-signals/internal/store/sqlite"
)

// Stack is the wired set of collaborators. Optional parts are nil when
// disabled by configuration.
type Stack struct {
	Source    feed.Source
	Redis     *goredis.Client
	Breaker   *redisstore.CircuitBreaker
	Publisher *redisstore.Publisher
	Archive   *sqlite.Writer

	closers []func() error
}

// Build wires the stack. The source chain is, outermost first:
// Redis cache, SQLite archive tee, instrumented base source (Yahoo or CSV).
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stack{}

	var src feed.Source
	if cfg.CSVDir != "" {
		src = feed.Instrumented(feed.CSVSource{Dir: cfg.CSVDir}, "csv", m)
		logger.Info("bar source: csv", "dir", cfg.CSVDir)
	} else {
		src = feed.Instrumented(feed.NewYahooSource(feed.YahooConfig{
			BaseURL: cfg.FeedBaseURL,
			Range:   cfg.FeedRange,
			RPS:     cfg.FeedRPS,
			Retries: 2,
		}, m, logger), "yahoo", m)
		logger.Info("bar source: yahoo", "rps", cfg.FeedRPS)
	}

	if cfg.ArchivePath != "" {
		w, err := sqlite.New(sqlite.WriterConfig{DBPath: cfg.ArchivePath}, m, logger)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		s.Archive = w
		s.closers = append(s.closers, w.Close)
		src = feed.NewArchivingSource(src, w, logger)
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = rdb
		s.closers = append(s.closers, rdb.Close)

		s.Breaker = redisstore.NewCircuitBreaker(5, 10*time.Second)
		s.Breaker.OnStateChange = func(from, to redisstore.State) {
			logger.Warn("redis circuit breaker", "from", from.String(), "to", to.String())
			if m != nil {
				m.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					m.RedisCircuitBreakerTrips.Inc()
				}
			}
		}
		s.Publisher = redisstore.NewPublisher(rdb, s.Breaker, 0, logger)
		src = feed.NewCachedSource(src, redisstore.NewCache(rdb, s.Breaker), cfg.CacheTTL, m, logger)
	}

	s.Source = src
	return s, nil
}

// Close releases every opened resource, newest first.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	s.closers = nil
}
