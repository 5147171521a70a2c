package indicator

import "math"

// window is a fixed-size circular buffer of the most recent values.
// Aggregates scan the buffer so NaN entries surface as NaN results.
type window struct {
	buf   []float64
	idx   int // next write position
	count int // total values received
}

func newWindow(size int) *window {
	if size < 1 {
		size = 1
	}
	return &window{buf: make([]float64, size)}
}

// push appends v, evicting the oldest value once full.
func (w *window) push(v float64) {
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % len(w.buf)
	w.count++
}

func (w *window) full() bool { return w.count >= len(w.buf) }

func (w *window) size() int { return len(w.buf) }

// oldest returns the value that the next push will evict.
func (w *window) oldest() float64 {
	if !w.full() {
		return w.buf[0]
	}
	return w.buf[w.idx]
}

// each visits the filled part of the buffer.
func (w *window) each(fn func(v float64)) {
	n := w.count
	if n > len(w.buf) {
		n = len(w.buf)
	}
	for i := 0; i < n; i++ {
		fn(w.buf[i])
	}
}

func (w *window) sum() float64 {
	s := 0.0
	w.each(func(v float64) { s += v })
	return s
}

// mean uses a running average so a flat window yields exactly its value.
func (w *window) mean() float64 {
	m, k := 0.0, 0
	w.each(func(v float64) {
		k++
		m += (v - m) / float64(k)
	})
	if k == 0 {
		return math.NaN()
	}
	return m
}

func (w *window) max() float64 {
	m := math.Inf(-1)
	w.each(func(v float64) {
		if math.IsNaN(v) || math.IsNaN(m) {
			m = math.NaN()
			return
		}
		if v > m {
			m = v
		}
	})
	return m
}

func (w *window) min() float64 {
	m := math.Inf(1)
	w.each(func(v float64) {
		if math.IsNaN(v) || math.IsNaN(m) {
			m = math.NaN()
			return
		}
		if v < m {
			m = v
		}
	})
	return m
}

// meanAbsDev returns the mean absolute deviation around mean.
func (w *window) meanAbsDev(mean float64) float64 {
	s, k := 0.0, 0
	w.each(func(v float64) {
		s += math.Abs(v - mean)
		k++
	})
	return s / float64(k)
}

// stdDev returns the population standard deviation around mean.
func (w *window) stdDev(mean float64) float64 {
	s, k := 0.0, 0
	w.each(func(v float64) {
		d := v - mean
		s += d * d
		k++
	})
	return math.Sqrt(s / float64(k))
}
