package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// CCI calculates the Commodity Channel Index:
// (typical − SMA(typical)) / (0.015 × mean absolute deviation).
type CCI struct {
	period int
	tp     *window
	cur    float64
}

// NewCCI creates a CCI with the given period.
func NewCCI(period int) *CCI {
	return &CCI{period: period, tp: newWindow(period), cur: math.NaN()}
}

func (c *CCI) Name() string { return "CCI" }

func (c *CCI) Update(bar model.Bar) {
	tp := bar.TypicalPrice()
	c.tp.push(tp)
	if !c.tp.full() {
		return
	}
	mean := c.tp.mean()
	md := c.tp.meanAbsDev(mean)
	if md == 0 {
		c.cur = math.NaN()
		return
	}
	c.cur = (tp - mean) / (0.015 * md)
}

func (c *CCI) Value() float64 { return c.cur }
func (c *CCI) Ready() bool    { return c.tp.full() && !math.IsNaN(c.cur) }
func (c *CCI) WarmUp() int    { return c.period }
