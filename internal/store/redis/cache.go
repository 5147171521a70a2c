package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"intraday-signals/internal/model"
)

// Cache stores fetched bar series as JSON under bars:{interval}:{ticker}
// with a TTL, so repeated refreshes inside the TTL skip the feed.
type Cache struct {
	client goredis.Cmdable
	cb     *CircuitBreaker
}

// NewCache creates a bar cache. cb may be nil.
func NewCache(client goredis.Cmdable, cb *CircuitBreaker) *Cache {
	return &Cache{client: client, cb: cb}
}

func (c *Cache) exec(fn func() error) error {
	if c.cb == nil {
		return fn()
	}
	return c.cb.Execute(fn)
}

// GetBars returns the cached series. ok is false on a miss.
func (c *Cache) GetBars(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, bool, error) {
	var raw []byte
	err := c.exec(func() error {
		var err error
		raw, err = c.client.Get(ctx, barsKey(interval.String(), ticker)).Bytes()
		return err
	})
	if errors.Is(err, goredis.Nil) {
		return model.BarSeries{}, false, nil
	}
	if err != nil {
		return model.BarSeries{}, false, fmt.Errorf("redis GET bars %s %s: %w", interval, ticker, err)
	}

	var series model.BarSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return model.BarSeries{}, false, fmt.Errorf("decode cached bars %s %s: %w", interval, ticker, err)
	}
	return series, true, nil
}

// SetBars stores series for ttl.
func (c *Cache) SetBars(ctx context.Context, series model.BarSeries, ttl time.Duration) error {
	key := barsKey(series.Interval.String(), series.Ticker)
	data := string(series.JSON())
	err := c.exec(func() error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}
