// Package indicator provides technical indicator calculations over bar data.
//
// All indicators implement the Indicator interface, receiving bars one at a
// time and producing float64 values. Indicators are designed to be composable:
// the oscillators reuse the moving averages and the rolling window internally.
package indicator

import "intraday-signals/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "RSI", "MACD").
	Name() string

	// Update feeds the next bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current primary output. Meaningless unless Ready.
	Value() float64

	// Ready returns true when the current output is defined: the warm-up
	// period has passed and no denominator collapsed to zero on this bar.
	Ready() bool

	// WarmUp returns how many bars must be fed before Ready can first be true.
	WarmUp() int
}

// Composite is implemented by indicators with companion outputs
// (MACD signal line, DI+/DI-, Bollinger bands...).
type Composite interface {
	Indicator

	// Components returns the companion outputs for the current bar.
	Components() map[string]model.Value
}

// Current returns the indicator's primary output as a model.Value.
func Current(ind Indicator) model.Value {
	if !ind.Ready() {
		return model.Missing()
	}
	return model.ValueOf(ind.Value())
}
