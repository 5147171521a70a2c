package indicator

import (
	"math"

	"intraday-signals/internal/model"
)

// ADX calculates Wilder's Average Directional Index with DI+ and DI−.
//
// True range and directional movement are Wilder-smoothed running sums
// (seeded with the plain sum of the first period values); DX feeds an
// average seeded with the mean of the first period DX values.
type ADX struct {
	period int
	count  int // bars seen

	prevHigh, prevLow, prevClose float64

	moves           int // directional moves accumulated
	trSum, pdm, mdm float64
	plusDI, minusDI float64
	diOK            bool

	dxCount int
	adx     float64
	dxOK    bool
}

// NewADX creates an ADX with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string { return "ADX" }

func (a *ADX) Update(bar model.Bar) {
	a.count++
	if a.count == 1 {
		a.prevHigh, a.prevLow, a.prevClose = bar.High, bar.Low, bar.Close
		return
	}

	tr := trueRange(bar, a.prevClose)
	up := bar.High - a.prevHigh
	down := a.prevLow - bar.Low
	plusDM, minusDM := 0.0, 0.0
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	a.prevHigh, a.prevLow, a.prevClose = bar.High, bar.Low, bar.Close

	p := float64(a.period)
	a.moves++
	if a.moves <= a.period {
		a.trSum += tr
		a.pdm += plusDM
		a.mdm += minusDM
		if a.moves < a.period {
			return
		}
	} else {
		a.trSum = a.trSum - a.trSum/p + tr
		a.pdm = a.pdm - a.pdm/p + plusDM
		a.mdm = a.mdm - a.mdm/p + minusDM
	}

	a.diOK = a.trSum > 0
	a.dxOK = false
	if !a.diOK {
		return
	}
	a.plusDI = 100 * a.pdm / a.trSum
	a.minusDI = 100 * a.mdm / a.trSum

	diSum := a.plusDI + a.minusDI
	if diSum == 0 {
		return
	}
	dx := 100 * math.Abs(a.plusDI-a.minusDI) / diSum

	a.dxCount++
	if a.dxCount <= a.period {
		a.adx += (dx - a.adx) / float64(a.dxCount)
	} else {
		a.adx = (a.adx*(p-1) + dx) / p
	}
	a.dxOK = true
}

// trueRange returns max(high−low, |high−prevClose|, |low−prevClose|).
func trueRange(bar model.Bar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

func (a *ADX) Value() float64 { return a.adx }

func (a *ADX) Ready() bool { return a.dxOK && a.dxCount >= a.period }

func (a *ADX) WarmUp() int { return 2 * a.period }

// PlusDI returns DI+.
func (a *ADX) PlusDI() float64 { return a.plusDI }

// MinusDI returns DI−.
func (a *ADX) MinusDI() float64 { return a.minusDI }

func (a *ADX) Components() map[string]model.Value {
	if !a.diOK {
		return map[string]model.Value{"plus_di": model.Missing(), "minus_di": model.Missing()}
	}
	return map[string]model.Value{
		"plus_di":  model.ValueOf(a.plusDI),
		"minus_di": model.ValueOf(a.minusDI),
	}
}
