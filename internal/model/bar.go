package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Bar represents one OHLCV sample for a fixed time interval.
// Prices are float64 in the instrument's quote currency.
type Bar struct {
	TS     time.Time `json:"ts"` // bucket start time, exchange-local zone preserved
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate checks the OHLC ordering invariant and that every field is finite.
// A violation is reported as *MalformedBarError.
func (b Bar) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &MalformedBarError{TS: b.TS, Reason: f.name + " is not finite"}
		}
		if f.v <= 0 {
			return &MalformedBarError{TS: b.TS, Reason: fmt.Sprintf("%s %.6f is not positive", f.name, f.v)}
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return &MalformedBarError{TS: b.TS, Reason: fmt.Sprintf("volume %v is invalid", b.Volume)}
	}
	if b.Low > b.High {
		return &MalformedBarError{TS: b.TS, Reason: fmt.Sprintf("low %.6f above high %.6f", b.Low, b.High)}
	}
	if b.Open < b.Low || b.Open > b.High {
		return &MalformedBarError{TS: b.TS, Reason: fmt.Sprintf("open %.6f outside [%.6f, %.6f]", b.Open, b.Low, b.High)}
	}
	if b.Close < b.Low || b.Close > b.High {
		return &MalformedBarError{TS: b.TS, Reason: fmt.Sprintf("close %.6f outside [%.6f, %.6f]", b.Close, b.Low, b.High)}
	}
	return nil
}

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// BarSeries is an ordered run of bars for one ticker at one interval.
type BarSeries struct {
	Ticker   string   `json:"ticker"`
	Interval Interval `json:"interval"`
	Bars     []Bar    `json:"bars"`
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// Last returns the latest bar. ok is false for an empty series.
func (s BarSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Key returns "interval:ticker".
func (s BarSeries) Key() string {
	return s.Interval.String() + ":" + s.Ticker
}

// Sanitize returns a copy of the series holding only valid bars whose
// timestamps strictly increase, plus one error per rejected bar.
// The receiver is not modified.
func (s BarSeries) Sanitize() (BarSeries, []error) {
	out := BarSeries{Ticker: s.Ticker, Interval: s.Interval, Bars: make([]Bar, 0, len(s.Bars))}
	var rejected []error
	var prev time.Time
	for _, b := range s.Bars {
		if err := b.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		if len(out.Bars) > 0 && !b.TS.After(prev) {
			rejected = append(rejected, &MalformedBarError{
				TS:     b.TS,
				Reason: "timestamp not after " + prev.Format(time.RFC3339),
			})
			continue
		}
		out.Bars = append(out.Bars, b)
		prev = b.TS
	}
	return out, rejected
}

// JSON returns the JSON-encoded series (ignoring errors).
func (s BarSeries) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
