package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// Stochastic calculates the slow %K oscillator:
// raw %K = (close − lowest low) / (highest high − lowest low) × 100 over the
// lookback, then an SMA of raw %K over smooth bars. smooth=1 disables smoothing.
type Stochastic struct {
	period int
	smooth int
	highs  *window
	lows   *window
	rawK   *window
	raw    float64
}

// NewStochastic creates a Stochastic %K with the given lookback and smoothing.
func NewStochastic(period, smooth int) *Stochastic {
	if smooth < 1 {
		smooth = 1
	}
	return &Stochastic{
		period: period,
		smooth: smooth,
		highs:  newWindow(period),
		lows:   newWindow(period),
		rawK:   newWindow(smooth),
		raw:    math.NaN(),
	}
}

func (s *Stochastic) Name() string { return "STOCH" }

func (s *Stochastic) Update(bar model.Bar) {
	s.highs.push(bar.High)
	s.lows.push(bar.Low)
	if !s.highs.full() {
		return
	}
	s.raw = stochOf(bar.Close, s.lows.min(), s.highs.max()) * 100
	s.rawK.push(s.raw)
}

// stochOf returns (v − lo)/(hi − lo), NaN for a flat range.
func stochOf(v, lo, hi float64) float64 {
	rng := hi - lo
	if rng == 0 || math.IsNaN(rng) {
		return math.NaN()
	}
	return (v - lo) / rng
}

// Value returns the smoothed %K; NaN if any raw value in the window was undefined.
func (s *Stochastic) Value() float64 { return s.rawK.mean() }

func (s *Stochastic) Ready() bool {
	return s.rawK.full() && !math.IsNaN(s.Value())
}

func (s *Stochastic) WarmUp() int { return s.period + s.smooth - 1 }

func (s *Stochastic) Components() map[string]model.Value {
	raw := model.Missing()
	if s.highs.full() {
		raw = model.ValueOf(s.raw)
	}
	return map[string]model.Value{"raw_k": raw}
}

// StochRSI applies the stochastic formula to the RSI series.
// Output range is 0–1.
type StochRSI struct {
	period int
	rsi    *RSI
	hist   *window
	cur    float64
}

// NewStochRSI creates a Stochastic RSI over an RSI(rsiPeriod) series with the
// given stochastic lookback.
func NewStochRSI(rsiPeriod, period int) *StochRSI {
	return &StochRSI{
		period: period,
		rsi:    NewRSI(rsiPeriod),
		hist:   newWindow(period),
		cur:    math.NaN(),
	}
}

func (s *StochRSI) Name() string { return "STOCHRSI" }

func (s *StochRSI) Update(bar model.Bar) {
	s.rsi.Update(bar)
	if !s.rsi.Ready() {
		return
	}
	v := s.rsi.Value()
	s.hist.push(v)
	if s.hist.full() {
		s.cur = stochOf(v, s.hist.min(), s.hist.max())
	}
}

func (s *StochRSI) Value() float64 { return s.cur }
func (s *StochRSI) Ready() bool    { return s.hist.full() && !math.IsNaN(s.cur) }
func (s *StochRSI) WarmUp() int    { return s.rsi.WarmUp() + s.period - 1 }

func (s *StochRSI) Components() map[string]model.Value {
	return map[string]model.Value{"rsi": Current(s.rsi)}
}
