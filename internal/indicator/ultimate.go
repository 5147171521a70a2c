package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// Ultimate calculates the Ultimate Oscillator:
// 100 × (4·avg_short + 2·avg_medium + avg_long) / 7, where each avg is
// Σ buying pressure / Σ true range over its window. Buying pressure is
// close − min(low, prevClose).
type Ultimate struct {
	short, medium, long int

	count     int
	prevClose float64
	bp        [3]*window
	tr        [3]*window
	cur       float64
}

// NewUltimate creates an Ultimate Oscillator with three windows (7, 14, 28).
func NewUltimate(short, medium, long int) *Ultimate {
	u := &Ultimate{short: short, medium: medium, long: long, cur: math.NaN()}
	for i, n := range []int{short, medium, long} {
		u.bp[i] = newWindow(n)
		u.tr[i] = newWindow(n)
	}
	return u
}

func (u *Ultimate) Name() string { return "UO" }

func (u *Ultimate) Update(bar model.Bar) {
	u.count++
	if u.count == 1 {
		u.prevClose = bar.Close
		return
	}
	trueLow := math.Min(bar.Low, u.prevClose)
	trueHigh := math.Max(bar.High, u.prevClose)
	u.prevClose = bar.Close

	for i := range u.bp {
		u.bp[i].push(bar.Close - trueLow)
		u.tr[i].push(trueHigh - trueLow)
	}
	if !u.bp[2].full() {
		return
	}

	var avg [3]float64
	for i := range u.bp {
		trSum := u.tr[i].sum()
		if trSum == 0 {
			u.cur = math.NaN()
			return
		}
		avg[i] = u.bp[i].sum() / trSum
	}
	u.cur = 100 * (4*avg[0] + 2*avg[1] + avg[2]) / 7
}

func (u *Ultimate) Value() float64 { return u.cur }
func (u *Ultimate) Ready() bool    { return u.bp[2].full() && !math.IsNaN(u.cur) }
func (u *Ultimate) WarmUp() int    { return u.long + 1 }
