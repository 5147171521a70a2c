package indicator

import (
	"strings"

	"intraday-signals/internal/model"
)

// MA types accepted by NewMovingAverage.
const (
	MATypeSMA  = "SMA"
	MATypeEMA  = "EMA"
	MATypeSMMA = "SMMA"
)

// NewMovingAverage returns an SMA, EMA or SMMA of closes. Unknown types fall
// back to SMA.
func NewMovingAverage(typ string, period int) Indicator {
	switch strings.ToUpper(typ) {
	case MATypeEMA:
		return NewEMA(period)
	case MATypeSMMA:
		return NewSMMA(period)
	default:
		return NewSMA(period)
	}
}

// MACross tracks a fast and a slow moving average of closes.
// Value is fast − slow; positive means the short-term trend is up.
type MACross struct {
	fast Indicator
	slow Indicator
}

// NewMACross creates a moving-average pair of the given type (20/50 by default).
func NewMACross(typ string, fast, slow int) *MACross {
	return &MACross{
		fast: NewMovingAverage(typ, fast),
		slow: NewMovingAverage(typ, slow),
	}
}

func (m *MACross) Name() string { return "MA" }

func (m *MACross) Update(bar model.Bar) {
	m.fast.Update(bar)
	m.slow.Update(bar)
}

func (m *MACross) Value() float64 { return m.fast.Value() - m.slow.Value() }
func (m *MACross) Ready() bool    { return m.fast.Ready() && m.slow.Ready() }

func (m *MACross) WarmUp() int {
	if f, s := m.fast.WarmUp(), m.slow.WarmUp(); f > s {
		return f
	}
	return m.slow.WarmUp()
}

func (m *MACross) Components() map[string]model.Value {
	return map[string]model.Value{
		"fast": Current(m.fast),
		"slow": Current(m.slow),
	}
}
