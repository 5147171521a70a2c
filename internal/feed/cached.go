package feed

import (
	"context"
	"log/slog"
	"time"

	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
)

// BarCache stores recently fetched series for a limited time.
type BarCache interface {
	GetBars(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, bool, error)
	SetBars(ctx context.Context, series model.BarSeries, ttl time.Duration) error
}

// CachedSource is a read-through cache in front of another Source.
// Cache failures are logged and fall back to the wrapped source.
type CachedSource struct {
	src     Source
	cache   BarCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCachedSource wraps src. m and logger may be nil.
func NewCachedSource(src Source, cache BarCache, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{src: src, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

func (c *CachedSource) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	series, ok, err := c.cache.GetBars(ctx, ticker, interval)
	if err != nil {
		c.logger.Warn("bar cache read failed", "ticker", ticker, "interval", interval.String(), "error", err)
	}
	if ok {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return series, nil
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}

	series, err = c.src.Fetch(ctx, ticker, interval)
	if err != nil {
		return series, err
	}
	if err := c.cache.SetBars(ctx, series, c.ttl); err != nil {
		c.logger.Warn("bar cache write failed", "ticker", ticker, "interval", interval.String(), "error", err)
	}
	return series, nil
}
