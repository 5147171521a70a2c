package evaluator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"intraday-signals/internal/feed"
	"intraday-signals/internal/metrics"
	"intraday-signals/internal/model"
	"intraday-signals/internal/signal"
)

func falling(ticker string, n int) model.BarSeries {
	s := model.BarSeries{Ticker: ticker, Interval: model.Interval5m}
	t0 := time.Date(2026, 3, 2, 3, 45, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 200 - float64(i)
		s.Bars = append(s.Bars, model.Bar{TS: t0.Add(time.Duration(i) * 5 * time.Minute), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 10})
	}
	return s
}

type mapSource map[string]model.BarSeries

func (m mapSource) Fetch(_ context.Context, ticker string, _ model.Interval) (model.BarSeries, error) {
	switch ticker {
	case "DOWN.NS":
		return model.BarSeries{}, errors.New("upstream 502")
	}
	s, ok := m[ticker]
	if !ok {
		return model.BarSeries{}, fmt.Errorf("%s: %w", ticker, feed.ErrNoData)
	}
	return s, nil
}

func newBatch(t *testing.T, src feed.Source, workers int, m *metrics.Metrics) *Batch {
	t.Helper()
	cfg := signal.DefaultConfig()
	cfg.Indicators = []string{"RSI"}
	eng, err := signal.NewEngine(cfg, signal.DefaultRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return &Batch{Source: src, Engine: eng, Workers: workers, Metrics: m}
}

func TestBatch_PerTickerIsolationAndOrder(t *testing.T) {
	src := mapSource{"TCS.NS": falling("TCS.NS", 40), "SHORT.NS": falling("SHORT.NS", 5)}
	b := newBatch(t, src, 3, nil)

	tickers := []string{"TCS.NS", "DOWN.NS", "MISSING.NS", "SHORT.NS"}
	got := b.Run(context.Background(), tickers, model.Interval5m)
	if len(got) != 4 {
		t.Fatalf("got %d rows", len(got))
	}
	for i, ev := range got {
		if ev.Ticker() != tickers[i] {
			t.Errorf("row %d ticker %q, want %q", i, ev.Ticker(), tickers[i])
		}
	}

	if got[0].Combined.Status != model.StatusOK || got[0].Combined.Verdict != model.Buy {
		t.Errorf("TCS: %+v", got[0].Combined)
	}
	if got[1].Combined.Status != model.StatusFeedError || got[1].Err == "" {
		t.Errorf("DOWN: %+v err=%q", got[1].Combined, got[1].Err)
	}
	if got[2].Combined.Status != model.StatusNoData || got[2].Err != "" {
		t.Errorf("MISSING: %+v", got[2].Combined)
	}
	if got[3].Combined.Status != model.StatusInsufficientData {
		t.Errorf("SHORT: %+v", got[3].Combined)
	}

	for _, ev := range got[1:] {
		if ev.Combined.Verdict != model.Neutral || ev.Combined.Participating != 0 || ev.Combined.Configured != 1 {
			t.Errorf("%s: unavailable rows must be neutral with nothing participating: %+v", ev.Ticker(), ev.Combined)
		}
		if len(ev.Report.Readings) != 1 || ev.Report.Readings[0].Value.Valid {
			t.Errorf("%s: readings %+v", ev.Ticker(), ev.Report.Readings)
		}
	}
}

func TestBatch_SerialMatchesConcurrent(t *testing.T) {
	src := mapSource{}
	var tickers []string
	for i := 0; i < 12; i++ {
		tk := fmt.Sprintf("T%02d.NS", i)
		src[tk] = falling(tk, 30+i)
		tickers = append(tickers, tk)
	}
	serial := newBatch(t, src, 1, nil).Run(context.Background(), tickers, model.Interval5m)
	parallel := newBatch(t, src, 8, nil).Run(context.Background(), tickers, model.Interval5m)
	if !reflect.DeepEqual(serial, parallel) {
		t.Error("concurrent run differs from serial run")
	}
}

func TestBatch_WorkerLimit(t *testing.T) {
	var inflight, peak int32
	src := feed.SourceFunc(func(ctx context.Context, ticker string, _ model.Interval) (model.BarSeries, error) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return falling(ticker, 30), nil
	})
	tickers := make([]string, 10)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("W%d", i)
	}
	newBatch(t, src, 2, nil).Run(context.Background(), tickers, model.Interval5m)
	if peak > 2 {
		t.Errorf("peak concurrency %d, want <= 2", peak)
	}
}

func TestBatch_Metrics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	src := mapSource{"TCS.NS": falling("TCS.NS", 40)}
	newBatch(t, src, 2, m).Run(context.Background(), []string{"TCS.NS", "DOWN.NS", "NONE.NS"}, model.Interval5m)

	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("BUY")); got != 1 {
		t.Errorf("BUY evaluations %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TickerFailures.WithLabelValues("feed_error")); got != 1 {
		t.Errorf("feed_error %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TickerFailures.WithLabelValues("no_data")); got != 1 {
		t.Errorf("no_data %v, want 1", got)
	}
}

func TestBatch_EmptyWatchlist(t *testing.T) {
	got := newBatch(t, mapSource{}, 0, nil).Run(context.Background(), nil, model.Interval5m)
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}
