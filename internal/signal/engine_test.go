package signal

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"intraday-signals/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 15, 0, 0, time.FixedZone("IST", 5*3600+1800))

func seriesOf(ticker string, closes ...float64) model.BarSeries {
	s := model.BarSeries{Ticker: ticker, Interval: model.Interval5m}
	for i, c := range closes {
		s.Bars = append(s.Bars, model.Bar{
			TS:   t0.Add(time.Duration(i) * 5 * time.Minute),
			Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		})
	}
	return s
}

func flatSeries(ticker string, price float64, n int) model.BarSeries {
	s := model.BarSeries{Ticker: ticker, Interval: model.Interval5m}
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, model.Bar{
			TS:   t0.Add(time.Duration(i) * 5 * time.Minute),
			Open: price, High: price, Low: price, Close: price, Volume: 1000,
		})
	}
	return s
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, DefaultRegistry(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngine_DefaultIndicators(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	want := []string{"RSI", "STOCH", "STOCHRSI", "MACD", "ADX", "CCI", "WILLR", "UO", "ROC", "BBP"}
	if got := e.Indicators(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Indicators()=%v, want %v", got, want)
	}
	if e.MaxWindow() != 28 {
		t.Errorf("MaxWindow()=%d, want 28", e.MaxWindow())
	}
}

// 30 strictly decreasing closes end with RSI at 0.
func TestEngine_ScenarioA_DecreasingClosesBuyRSI(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	ev := newEngine(t, DefaultConfig()).Evaluate(seriesOf("TCS.NS", closes...))

	if ev.Report.Status != model.StatusOK {
		t.Fatalf("status %s, want ok", ev.Report.Status)
	}
	rsi, ok := ev.Report.Reading("RSI")
	if !ok || !rsi.Value.Valid {
		t.Fatalf("RSI missing: %+v", rsi)
	}
	if rsi.Value.Float >= 30 {
		t.Errorf("RSI=%.2f, want < 30", rsi.Value.Float)
	}
	if rsi.Signal != model.Buy {
		t.Errorf("RSI signal %s, want BUY", rsi.Signal)
	}
}

// Constant closes: RSI 50, MACD flat, every call neutral.
func TestEngine_ScenarioB_ConstantClosesNeutral(t *testing.T) {
	ev := newEngine(t, DefaultConfig()).Evaluate(flatSeries("INFY.NS", 1432.5, 30))

	rsi, _ := ev.Report.Reading("RSI")
	if !rsi.Value.Valid || rsi.Value.Float != 50 {
		t.Fatalf("RSI=%v, want 50", rsi.Value)
	}
	for _, rd := range ev.Report.Readings {
		if rd.Signal != model.Neutral {
			t.Errorf("%s: signal %s on flat prices (value %v)", rd.Name, rd.Signal, rd.Value)
		}
	}
	if ev.Combined.Score != 0 || ev.Combined.Verdict != model.Neutral {
		t.Errorf("combined %s/%d, want NEUTRAL/0", ev.Combined.Verdict, ev.Combined.Score)
	}
	if ev.Combined.Status.DataUnavailable() {
		t.Errorf("flat prices are a computed NEUTRAL, got status %s", ev.Combined.Status)
	}

	// With enough history for MACD to warm up the diff is exactly zero.
	cfg := DefaultConfig()
	cfg.Indicators = []string{"MACD"}
	ev = newEngine(t, cfg).Evaluate(flatSeries("INFY.NS", 1432.5, 40))
	macd, _ := ev.Report.Reading("MACD")
	if !macd.Value.Valid || macd.Value.Float != 0 || macd.Signal != model.Neutral {
		t.Errorf("flat MACD: %+v", macd)
	}
}

func TestEngine_ScenarioC_EmptySeries(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	ev := e.Evaluate(model.BarSeries{Ticker: "XASDF.NS", Interval: model.Interval5m})

	if len(ev.Report.Readings) != len(e.Indicators()) {
		t.Fatalf("expected %d readings, got %d", len(e.Indicators()), len(ev.Report.Readings))
	}
	for _, rd := range ev.Report.Readings {
		if rd.Value.Valid || rd.Signal != model.Neutral {
			t.Errorf("%s: got %v/%s, want missing/NEUTRAL", rd.Name, rd.Value, rd.Signal)
		}
	}
	c := ev.Combined
	if c.Verdict != model.Neutral || c.Score != 0 || c.Participating != 0 {
		t.Errorf("combined %+v, want NEUTRAL/0/0", c)
	}
	if c.Status != model.StatusNoData || !c.Status.DataUnavailable() {
		t.Errorf("status %s, want no_data flagged unavailable", c.Status)
	}
	if c.Configured != 10 {
		t.Errorf("configured %d, want 10", c.Configured)
	}
}

func TestEngine_ShortSeriesIsInsufficient(t *testing.T) {
	ev := newEngine(t, DefaultConfig()).Evaluate(seriesOf("RELIANCE.NS", 100, 101, 102, 101, 103))

	if ev.Report.Status != model.StatusInsufficientData {
		t.Fatalf("status %s, want insufficient_data", ev.Report.Status)
	}
	if ev.Combined.Score != 0 || ev.Combined.Participating != 0 {
		t.Errorf("combined %+v, want score 0 with nothing participating", ev.Combined)
	}
	if !ev.Report.Close.Valid || ev.Report.Close.Float != 103 {
		t.Errorf("close %v, want 103", ev.Report.Close)
	}
}

// A series long enough for the engine but not for one indicator's warm-up
// leaves that indicator missing and out of the score.
func TestEngine_WarmUpMissingContributesZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Indicators = []string{"MACD", "RSI"}
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	ev := newEngine(t, cfg).Evaluate(seriesOf("SBIN.NS", closes...))

	macd, _ := ev.Report.Reading("MACD")
	if macd.Value.Valid || macd.Signal != model.Neutral {
		t.Errorf("MACD should still be warming up at 30 bars, got %+v", macd)
	}
	if ev.Combined.Participating != 1 || ev.Combined.Score != 1 || ev.Combined.Verdict != model.Buy {
		t.Errorf("combined %+v, want RSI alone: BUY/1 with 1 participating", ev.Combined)
	}
}

func TestEngine_DropsMalformedBars(t *testing.T) {
	s := seriesOf("HDFC.NS", 100, 101, 102)
	bad := s.Bars[1]
	bad.Low, bad.High = bad.High, bad.Low // inverted range
	dup := s.Bars[2]
	s.Bars = []model.Bar{s.Bars[0], bad, s.Bars[1], s.Bars[2], dup}

	cfg := DefaultConfig()
	cfg.Indicators = []string{"ROC"}
	cfg.Params.ROCPeriod = 2
	ev := newEngine(t, cfg).Evaluate(s)

	if ev.Dropped != 2 {
		t.Fatalf("dropped %d, want 2", ev.Dropped)
	}
	roc, _ := ev.Report.Reading("ROC")
	if !roc.Value.Valid || roc.Signal != model.Buy {
		t.Errorf("ROC over the clean bars: %+v", roc)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	s := wave("TCS.NS", 120, 0)
	first := e.Evaluate(s)
	second := e.Evaluate(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeat evaluation differs:\n%+v\n%+v", first, second)
	}
}

func TestEngine_ConcurrentMatchesSerial(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	inputs := make([]model.BarSeries, 16)
	for i := range inputs {
		inputs[i] = wave(fmt.Sprintf("T%02d.NS", i), 80+i*5, float64(i))
	}

	serial := make([]model.Evaluation, len(inputs))
	for i, s := range inputs {
		serial[i] = e.Evaluate(s)
	}

	concurrent := make([]model.Evaluation, len(inputs))
	var wg sync.WaitGroup
	for i, s := range inputs {
		wg.Add(1)
		go func(i int, s model.BarSeries) {
			defer wg.Done()
			concurrent[i] = e.Evaluate(s)
		}(i, s)
	}
	wg.Wait()

	if !reflect.DeepEqual(serial, concurrent) {
		t.Fatal("concurrent evaluation differs from serial")
	}
}

func TestEngine_SeriesAlignedWithBars(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	s := wave("TCS.NS", 60, 1)
	out := e.Series(s)
	for name, ser := range out {
		if ser.Len() != s.Len() {
			t.Errorf("%s: %d entries for %d bars", name, ser.Len(), s.Len())
		}
		for i := range ser.TS {
			if !ser.TS[i].Equal(s.Bars[i].TS) {
				t.Fatalf("%s: entry %d not aligned", name, i)
			}
		}
	}
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown":       func(c *Config) { c.Indicators = []string{"RSI", "VWAP"} },
		"duplicate":     func(c *Config) { c.Indicators = []string{"RSI", "rsi"} },
		"zero window":   func(c *Config) { c.Params.RSIPeriod = 0 },
		"history":       func(c *Config) { c.MaxHistory = 20 },
		"min agreement": func(c *Config) { c.Options.MinAgreement = 11 },
		"negative min":  func(c *Config) { c.Options.MinAgreement = -1 },
		"thresholds":    func(c *Config) { c.Thresholds.RSIOversold = 80 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := NewEngine(cfg, DefaultRegistry(), nil)
		if !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestEngine_MinAgreementOption(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	cfg := DefaultConfig()
	cfg.Indicators = []string{"RSI", "ROC"}
	plain := newEngine(t, cfg).Evaluate(seriesOf("X.NS", closes...))

	cfg.Options.MinAgreement = 2
	strict := newEngine(t, cfg).Evaluate(seriesOf("X.NS", closes...))

	// RSI says BUY (oversold), ROC says SELL (falling): score 0 either way.
	if plain.Combined.Score != 0 || strict.Combined.Score != 0 {
		t.Fatalf("scores %d/%d, want 0", plain.Combined.Score, strict.Combined.Score)
	}

	cfg.Indicators = []string{"RSI", "STOCH"}
	cfg.Options.MinAgreement = 3
	if _, err := NewEngine(cfg, DefaultRegistry(), nil); err == nil {
		t.Error("min agreement above indicator count should be rejected")
	}
}

// wave builds a deterministic oscillating series.
func wave(ticker string, n int, phase float64) model.BarSeries {
	closes := make([]float64, n)
	for i := range closes {
		x := float64(i)/4 + phase
		closes[i] = 500 + 20*math.Sin(x) + float64(i)*0.3
	}
	return seriesOf(ticker, closes...)
}
