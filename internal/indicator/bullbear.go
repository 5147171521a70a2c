package indicator

import "intraday-signals/internal/model"

// BullBear calculates Elder's Bull Power (high − EMA(close)) as the primary
// output, with Bear Power (low − EMA(close)) as a component.
type BullBear struct {
	ema        *EMA
	bull, bear float64
}

// NewBullBear creates Bull/Bear Power over an EMA of the given period (13).
func NewBullBear(period int) *BullBear {
	return &BullBear{ema: NewEMA(period)}
}

func (b *BullBear) Name() string { return "BBP" }

func (b *BullBear) Update(bar model.Bar) {
	b.ema.add(bar.Close)
	if !b.ema.Ready() {
		return
	}
	b.bull = bar.High - b.ema.Value()
	b.bear = bar.Low - b.ema.Value()
}

func (b *BullBear) Value() float64 { return b.bull }
func (b *BullBear) Ready() bool    { return b.ema.Ready() }
func (b *BullBear) WarmUp() int    { return b.ema.WarmUp() }

func (b *BullBear) Components() map[string]model.Value {
	if !b.Ready() {
		return map[string]model.Value{"bear": model.Missing()}
	}
	return map[string]model.Value{"bear": model.ValueOf(b.bear)}
}
