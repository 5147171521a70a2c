package indicator

import "intraday-signals/internal/model"

// SMA calculates Simple Moving Average over a rolling window of closes.
type SMA struct {
	period  int
	win     *window
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		win:    newWindow(period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(bar model.Bar) { s.add(bar.Close) }

func (s *SMA) add(v float64) {
	s.win.push(v)
	if s.win.full() {
		s.current = s.win.mean()
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.win.full() }
func (s *SMA) WarmUp() int    { return s.period }
