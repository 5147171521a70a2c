package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// WilliamsR calculates Williams %R: (highest high − close)/(highest high − lowest low) × −100.
// Range is −100..0.
type WilliamsR struct {
	period int
	highs  *window
	lows   *window
	cur    float64
}

// NewWilliamsR creates a Williams %R with the given lookback.
func NewWilliamsR(period int) *WilliamsR {
	return &WilliamsR{
		period: period,
		highs:  newWindow(period),
		lows:   newWindow(period),
		cur:    math.NaN(),
	}
}

func (w *WilliamsR) Name() string { return "WILLR" }

func (w *WilliamsR) Update(bar model.Bar) {
	w.highs.push(bar.High)
	w.lows.push(bar.Low)
	if !w.highs.full() {
		return
	}
	hh, ll := w.highs.max(), w.lows.min()
	if hh == ll {
		w.cur = math.NaN()
		return
	}
	w.cur = (hh - bar.Close) / (hh - ll) * -100
}

func (w *WilliamsR) Value() float64 { return w.cur }
func (w *WilliamsR) Ready() bool    { return w.highs.full() && !math.IsNaN(w.cur) }
func (w *WilliamsR) WarmUp() int    { return w.period }
