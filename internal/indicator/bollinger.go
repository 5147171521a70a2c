package indicator

import "intraday-signals/internal/model"

// Bollinger calculates Bollinger Bands: SMA ± k × population std-dev of closes.
// Value is the middle band.
type Bollinger struct {
	period int
	k      float64
	closes *window

	middle, upper, lower, close float64
}

// NewBollinger creates Bollinger Bands with the given period and width (20, 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{period: period, k: k, closes: newWindow(period)}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(bar model.Bar) {
	b.closes.push(bar.Close)
	b.close = bar.Close
	if !b.closes.full() {
		return
	}
	b.middle = b.closes.mean()
	sd := b.closes.stdDev(b.middle)
	b.upper = b.middle + b.k*sd
	b.lower = b.middle - b.k*sd
}

func (b *Bollinger) Value() float64 { return b.middle }
func (b *Bollinger) Ready() bool    { return b.closes.full() }
func (b *Bollinger) WarmUp() int    { return b.period }

// Upper returns the upper band.
func (b *Bollinger) Upper() float64 { return b.upper }

// Lower returns the lower band.
func (b *Bollinger) Lower() float64 { return b.lower }

func (b *Bollinger) Components() map[string]model.Value {
	if !b.Ready() {
		return map[string]model.Value{"upper": model.Missing(), "lower": model.Missing(), "close": model.ValueOf(b.close)}
	}
	return map[string]model.Value{
		"upper": model.ValueOf(b.upper),
		"lower": model.ValueOf(b.lower),
		"close": model.ValueOf(b.close),
	}
}
