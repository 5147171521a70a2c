package indicator

import "intraday-signals/internal/model"

// EMA calculates Exponential Moving Average, seeded with the SMA of the
// first period values.
// O(1) per update, no window storage.
type EMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return "EMA" }

func (e *EMA) Update(bar model.Bar) { e.add(bar.Close) }

func (e *EMA) add(price float64) {
	e.count++

	if e.count <= e.period {
		// Running mean for the SMA seed
		e.current += (price - e.current) / float64(e.count)
		return
	}

	// Same as price*m + prev*(1-m), but exact when price == prev
	e.current += e.multiplier * (price - e.current)
}

func (e *EMA) Value() float64 { return e.current }
func (e *EMA) Ready() bool    { return e.count >= e.period }
func (e *EMA) WarmUp() int    { return e.period }
