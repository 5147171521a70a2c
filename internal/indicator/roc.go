package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// ROC calculates Rate of Change: (close_t − close_{t−n}) / close_{t−n} × 100.
type ROC struct {
	period int
	closes *window // holds period+1 closes: oldest is close_{t−n}
	cur    float64
}

// NewROC creates a ROC with the given lookback.
func NewROC(period int) *ROC {
	return &ROC{period: period, closes: newWindow(period + 1), cur: math.NaN()}
}

func (r *ROC) Name() string { return "ROC" }

func (r *ROC) Update(bar model.Bar) {
	r.closes.push(bar.Close)
	if !r.closes.full() {
		return
	}
	// After the push the write index points at the oldest retained value.
	prev := r.closes.oldest()
	if prev == 0 {
		r.cur = math.NaN()
		return
	}
	r.cur = (bar.Close - prev) / prev * 100
}

func (r *ROC) Value() float64 { return r.cur }
func (r *ROC) Ready() bool    { return r.closes.full() && !math.IsNaN(r.cur) }
func (r *ROC) WarmUp() int    { return r.period + 1 }
