package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/markcheno/go-talib"

	"intraday-signals/internal/model"
)

// randomWalk builds a reproducible OHLC series with no flat stretches.
func randomWalk(n int, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	price := 1500.0
	for i := range bars {
		open := price
		price += (rng.Float64() - 0.5) * 12
		hi := math.Max(open, price) + rng.Float64()*4 + 0.05
		lo := math.Min(open, price) - rng.Float64()*4 - 0.05
		bars[i] = ohlc(i, open, hi, lo, price)
	}
	return bars
}

func columns(bars []model.Bar) (high, low, close []float64) {
	for _, b := range bars {
		high = append(high, b.High)
		low = append(low, b.Low)
		close = append(close, b.Close)
	}
	return high, low, close
}

// compareTail checks the last n entries of our series against the oracle.
func compareTail(t *testing.T, label string, got Series, want []float64, n int, tol float64) {
	t.Helper()
	if got.Len() != len(want) {
		t.Fatalf("%s: length %d, oracle %d", label, got.Len(), len(want))
	}
	for i := len(want) - n; i < len(want); i++ {
		v := got.Values[i]
		if !v.Valid {
			t.Fatalf("%s: bar %d missing", label, i)
		}
		assertClose(t, label, v.Float, want[i], tol)
	}
}

func TestOracle_MovingAverages(t *testing.T) {
	bars := randomWalk(200, 1)
	_, _, c := columns(bars)

	compareTail(t, "SMA(20)", Compute(bars, NewSMA(20)), talib.Sma(c, 20), 150, 1e-6)
	compareTail(t, "EMA(20)", Compute(bars, NewEMA(20)), talib.Ema(c, 20), 150, 1e-6)
}

func TestOracle_RSI(t *testing.T) {
	bars := randomWalk(200, 2)
	_, _, c := columns(bars)
	compareTail(t, "RSI(14)", Compute(bars, NewRSI(14)), talib.Rsi(c, 14), 150, 1e-6)
}

func TestOracle_CCI(t *testing.T) {
	bars := randomWalk(200, 3)
	h, l, c := columns(bars)
	compareTail(t, "CCI(14)", Compute(bars, NewCCI(14)), talib.Cci(h, l, c, 14), 150, 1e-6)
}

func TestOracle_WilliamsR(t *testing.T) {
	bars := randomWalk(200, 4)
	h, l, c := columns(bars)
	compareTail(t, "WILLR(14)", Compute(bars, NewWilliamsR(14)), talib.WillR(h, l, c, 14), 150, 1e-6)
}

func TestOracle_ROC(t *testing.T) {
	bars := randomWalk(200, 5)
	_, _, c := columns(bars)
	compareTail(t, "ROC(12)", Compute(bars, NewROC(12)), talib.Roc(c, 12), 150, 1e-6)
}

func TestOracle_Ultimate(t *testing.T) {
	bars := randomWalk(200, 6)
	h, l, c := columns(bars)
	compareTail(t, "UO(7,14,28)", Compute(bars, NewUltimate(7, 14, 28)), talib.UltOsc(h, l, c, 7, 14, 28), 150, 1e-6)
}

func TestOracle_Bollinger(t *testing.T) {
	bars := randomWalk(200, 7)
	_, _, c := columns(bars)
	upper, middle, lower := talib.BBands(c, 20, 2, 2, talib.SMA)

	s := Compute(bars, NewBollinger(20, 2))
	compareTail(t, "BB middle", s, middle, 150, 1e-6)
	for i := 50; i < len(c); i++ {
		assertClose(t, "BB upper", s.Components["upper"][i].Float, upper[i], 1e-6)
		assertClose(t, "BB lower", s.Components["lower"][i].Float, lower[i], 1e-6)
	}
}

func TestOracle_MACDLine(t *testing.T) {
	bars := randomWalk(300, 8)
	_, _, c := columns(bars)
	line, signal, hist := talib.Macd(c, 12, 26, 9)

	// TA-Lib seeds both EMAs at the slow lookback, so the early bars differ;
	// the seeding difference decays to noise well inside 300 bars.
	s := Compute(bars, NewMACD(12, 26, 9))
	for i := len(c) - 100; i < len(c); i++ {
		assertClose(t, "MACD line", s.Values[i].Float, line[i], 1e-4)
		assertClose(t, "MACD signal", s.Components["signal"][i].Float, signal[i], 1e-4)
		assertClose(t, "MACD hist", s.Components["hist"][i].Float, hist[i], 1e-4)
	}
}

func TestOracle_Stochastic(t *testing.T) {
	bars := randomWalk(300, 9)
	h, l, c := columns(bars)
	slowK, _ := talib.Stoch(h, l, c, 14, 3, talib.SMA, 3, talib.SMA)
	compareTail(t, "STOCH(14,3)", Compute(bars, NewStochastic(14, 3)), slowK, 250, 1e-9)
}

func TestOracle_StochRSI(t *testing.T) {
	bars := randomWalk(300, 10)
	_, _, c := columns(bars)
	fastK, _ := talib.StochRsi(c, 14, 14, 3, talib.SMA)

	// TA-Lib reports 0-100; ours is 0-1.
	want := make([]float64, len(fastK))
	for i, v := range fastK {
		want[i] = v / 100
	}
	compareTail(t, "STOCHRSI(14,14)", Compute(bars, NewStochRSI(14, 14)), want, 250, 1e-9)
}

func TestOracle_ADX(t *testing.T) {
	bars := randomWalk(300, 11)
	h, l, c := columns(bars)
	adx := talib.Adx(h, l, c, 14)
	plus := talib.PlusDI(h, l, c, 14)
	minus := talib.MinusDI(h, l, c, 14)

	// TA-Lib seeds the first ADX differently; the gap decays with the Wilder smoothing.
	s := Compute(bars, NewADX(14))
	for i := len(c) - 100; i < len(c); i++ {
		assertClose(t, "DI+", s.Components["plus_di"][i].Float, plus[i], 1e-3)
		assertClose(t, "DI-", s.Components["minus_di"][i].Float, minus[i], 1e-3)
		assertClose(t, "ADX", s.Values[i].Float, adx[i], 1e-2)
	}
}
