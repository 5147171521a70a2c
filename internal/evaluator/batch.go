// Package evaluator drives the signal engine across a watchlist: it fetches
// each ticker's bars, evaluates them and returns one row per ticker.
package evaluator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/logger"
	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
	"intraday-signals/internal/signal"
)

// DefaultWorkers is used when Batch.Workers is not positive.
const DefaultWorkers = 4

// Batch evaluates a list of tickers on a bounded worker pool.
// One ticker's failure becomes that ticker's status row; it never aborts
// the others.
type Batch struct {
	Source  feed.Source
	Engine  *signal.Engine
	Workers int
	Metrics *metrics.Metrics // optional
	Logger  *slog.Logger     // optional
}

// Run returns one evaluation per ticker in input order.
func (b *Batch) Run(ctx context.Context, tickers []string, interval model.Interval) []model.Evaluation {
	out := make([]model.Evaluation, len(tickers))
	workers := b.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			out[i] = b.One(ctx, ticker, interval)
			return nil
		})
	}
	g.Wait()
	return out
}

// One fetches and evaluates a single ticker.
func (b *Batch) One(ctx context.Context, ticker string, interval model.Interval) model.Evaluation {
	log := b.logger()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(ticker, time.Now()))

	series, err := b.Source.Fetch(ctx, ticker, interval)
	var ev model.Evaluation
	switch {
	case err == nil:
		if series.Ticker == "" {
			series.Ticker = ticker
		}
		if series.Interval == "" {
			series.Interval = interval
		}
		start := time.Now()
		ev = b.Engine.Evaluate(series)
		if b.Metrics != nil {
			b.Metrics.EvalDur.Observe(time.Since(start).Seconds())
			b.Metrics.MalformedBars.Add(float64(ev.Dropped))
		}
	case feed.IsNoData(err):
		log.Info("no bars for ticker", append(logger.LogWithTrace(ctx), "ticker", ticker, "interval", interval.String())...)
		ev = b.unavailable(ticker, interval, model.StatusNoData, "")
	default:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Debug("fetch cancelled", append(logger.LogWithTrace(ctx), "ticker", ticker)...)
		} else {
			log.Warn("fetch failed", append(logger.LogWithTrace(ctx), "ticker", ticker, "interval", interval.String(), "error", err)...)
		}
		ev = b.unavailable(ticker, interval, model.StatusFeedError, err.Error())
	}

	b.record(ev)
	return ev
}

// unavailable builds a row with every configured indicator missing.
func (b *Batch) unavailable(ticker string, interval model.Interval, status model.Status, msg string) model.Evaluation {
	ev := b.Engine.Evaluate(model.BarSeries{Ticker: ticker, Interval: interval})
	ev.Report.Status = status
	ev.Combined.Status = status
	ev.Err = msg
	return ev
}

func (b *Batch) record(ev model.Evaluation) {
	if b.Metrics == nil {
		return
	}
	if ev.Combined.Status == model.StatusOK {
		b.Metrics.EvaluationsTotal.WithLabelValues(ev.Combined.Verdict.String()).Inc()
		return
	}
	b.Metrics.TickerFailures.WithLabelValues(string(ev.Combined.Status)).Inc()
}

func (b *Batch) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
