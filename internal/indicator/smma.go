package indicator

import "intraday-signals/internal/model"

// SMMA calculates Smoothed Moving Average (Wilder-style smoothing).
// First value is SMA(period), then SMMA = (prev*(period-1) + price) / period.
type SMMA struct {
	period  int
	count   int
	current float64
}

// NewSMMA creates a new SMMA indicator with the given period.
func NewSMMA(period int) *SMMA {
	return &SMMA{period: period}
}

func (s *SMMA) Name() string { return "SMMA" }

func (s *SMMA) Update(bar model.Bar) { s.add(bar.Close) }

func (s *SMMA) add(price float64) {
	s.count++

	if s.count <= s.period {
		s.current += (price - s.current) / float64(s.count)
		return
	}

	s.current += (price - s.current) / float64(s.period)
}

func (s *SMMA) Value() float64 { return s.current }
func (s *SMMA) Ready() bool    { return s.count >= s.period }
func (s *SMMA) WarmUp() int    { return s.period }
