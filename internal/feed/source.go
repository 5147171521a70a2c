// Package feed supplies bar series to the signal engine.
//
// A Source fetches the bars of one ticker at one interval. Implementations
// cover the Yahoo Finance chart API, CSV files and the SQLite archive;
// CachedSource, ArchivingSource and Instrumented wrap any Source.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
)

// ErrNoData is returned when the feed has no bars for the ticker.
var ErrNoData = fmt.Errorf("feed: no bars: %w", model.ErrDataUnavailable)

// Source fetches the bars of one ticker.
type Source interface {
	Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error)

func (f SourceFunc) Fetch(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
	return f(ctx, ticker, interval)
}

// IsNoData reports whether err means the feed had nothing for the ticker.
func IsNoData(err error) bool {
	return errors.Is(err, model.ErrDataUnavailable)
}

// Instrumented records fetch latency and failures under the given source label.
func Instrumented(src Source, label string, m *metrics.Metrics) Source {
	if m == nil {
		return src
	}
	return SourceFunc(func(ctx context.Context, ticker string, interval model.Interval) (model.BarSeries, error) {
		start := time.Now()
		series, err := src.Fetch(ctx, ticker, interval)
		m.FetchDur.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err != nil && !IsNoData(err) {
			m.FetchErrors.WithLabelValues(label).Inc()
		}
		return series, err
	})
}
