package indicator

import "intraday-signals/internal/model"

// MACD calculates Moving Average Convergence Divergence:
// line = EMA_fast − EMA_slow, signal = EMA(line, signalPeriod), hist = line − signal.
// Ready once the signal line is defined.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	line   float64
}

// NewMACD creates a MACD with the given fast, slow and signal periods (12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(bar model.Bar) {
	m.fast.add(bar.Close)
	m.slow.add(bar.Close)
	if !m.slow.Ready() || !m.fast.Ready() {
		return
	}
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.add(m.line)
}

func (m *MACD) Value() float64 { return m.line }
func (m *MACD) Ready() bool    { return m.signal.Ready() }

func (m *MACD) WarmUp() int {
	slow := m.slow.WarmUp()
	if f := m.fast.WarmUp(); f > slow {
		slow = f
	}
	return slow + m.signal.WarmUp() - 1
}

// Signal returns the signal line.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Hist returns line − signal.
func (m *MACD) Hist() float64 { return m.line - m.signal.Value() }

func (m *MACD) Components() map[string]model.Value {
	if !m.Ready() {
		return map[string]model.Value{"signal": model.Missing(), "hist": model.Missing()}
	}
	return map[string]model.Value{
		"signal": model.ValueOf(m.Signal()),
		"hist":   model.ValueOf(m.Hist()),
	}
}
