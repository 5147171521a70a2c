package indicator

import (
	"time"

	"intraday-signals/internal/model"
)

// Series is an indicator's output aligned 1:1 with the input bars.
// Warm-up entries and zero-denominator bars are missing.
type Series struct {
	Name       string
	TS         []time.Time
	Values     []model.Value
	Components map[string][]model.Value
}

// Compute feeds bars through ind in order and records its output after each bar.
// ind should be freshly constructed.
func Compute(bars []model.Bar, ind Indicator) Series {
	s := Series{
		Name:   ind.Name(),
		TS:     make([]time.Time, len(bars)),
		Values: make([]model.Value, len(bars)),
	}
	comp, isComposite := ind.(Composite)
	if isComposite {
		s.Components = make(map[string][]model.Value)
	}
	for i, bar := range bars {
		ind.Update(bar)
		s.TS[i] = bar.TS
		s.Values[i] = Current(ind)
		if !isComposite {
			continue
		}
		for name, v := range comp.Components() {
			col, ok := s.Components[name]
			if !ok {
				col = make([]model.Value, len(bars))
				s.Components[name] = col
			}
			col[i] = v
		}
	}
	return s
}

// Len returns the number of entries.
func (s Series) Len() int { return len(s.Values) }

// Last returns the latest entry and its components. Both are missing for an
// empty series.
func (s Series) Last() (model.Value, map[string]model.Value) {
	if len(s.Values) == 0 {
		return model.Missing(), nil
	}
	i := len(s.Values) - 1
	var comps map[string]model.Value
	if len(s.Components) > 0 {
		comps = make(map[string]model.Value, len(s.Components))
		for name, col := range s.Components {
			comps[name] = col[i]
		}
	}
	return s.Values[i], comps
}

// Defined counts the non-missing entries.
func (s Series) Defined() int {
	n := 0
	for _, v := range s.Values {
		if v.Valid {
			n++
		}
	}
	return n
}
