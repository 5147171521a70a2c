package model

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

func TestBar_Validate(t *testing.T) {
	good := Bar{TS: t0, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid bar rejected: %v", err)
	}
	flat := Bar{TS: t0, Open: 5, High: 5, Low: 5, Close: 5}
	if err := flat.Validate(); err != nil {
		t.Errorf("flat bar rejected: %v", err)
	}

	bad := map[string]Bar{
		"low above high":   {TS: t0, Open: 100, High: 99, Low: 101, Close: 100},
		"close above high": {TS: t0, Open: 100, High: 101, Low: 99, Close: 102},
		"open below low":   {TS: t0, Open: 98, High: 101, Low: 99, Close: 100},
		"nan close":        {TS: t0, Open: 100, High: 101, Low: 99, Close: math.NaN()},
		"zero price":       {TS: t0, Open: 0, High: 1, Low: 0, Close: 1},
		"negative volume":  {TS: t0, Open: 100, High: 101, Low: 99, Close: 100, Volume: -1},
	}
	for name, b := range bad {
		err := b.Validate()
		var mb *MalformedBarError
		if !errors.As(err, &mb) || !errors.Is(err, ErrMalformedBar) {
			t.Errorf("%s: expected MalformedBarError, got %v", name, err)
		}
	}
}

func TestBarSeries_Sanitize(t *testing.T) {
	bar := func(min int, c float64) Bar {
		return Bar{TS: t0.Add(time.Duration(min) * time.Minute), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	s := BarSeries{Ticker: "TCS.NS", Interval: Interval5m, Bars: []Bar{
		bar(0, 10),
		bar(5, 11),
		// inverted high/low
		{TS: t0.Add(10 * time.Minute), Open: 12, High: 11, Low: 13, Close: 12},
		// duplicate timestamp
		bar(5, 12),
		bar(15, 13),
		// out of order
		bar(12, 14),
	}}
	clean, rejected := s.Sanitize()
	if clean.Len() != 3 || len(rejected) != 3 {
		t.Fatalf("clean=%d rejected=%d, want 3/3", clean.Len(), len(rejected))
	}
	if clean.Bars[2].Close != 13 {
		t.Errorf("last clean close %v, want 13", clean.Bars[2].Close)
	}
	if len(s.Bars) != 6 {
		t.Error("Sanitize modified the receiver")
	}
	if last, ok := clean.Last(); !ok || last.Close != 13 {
		t.Errorf("Last = %v, %v", last, ok)
	}
	if _, ok := (BarSeries{}).Last(); ok {
		t.Error("empty series has no last bar")
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]Interval{"1m": Interval1m, "5M": Interval5m, " 15m ": Interval15m, "60m": Interval1h, "1h": Interval1h, "1d": Interval1d}
	for in, want := range cases {
		got, err := ParseInterval(in)
		if err != nil || got != want {
			t.Errorf("ParseInterval(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseInterval("7m"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if Interval15m.Duration() != 15*time.Minute || Interval1d.Intraday() || !Interval1h.Intraday() {
		t.Error("interval helpers")
	}
}

func TestValue_JSON(t *testing.T) {
	b, _ := json.Marshal([]Value{ValueOf(1.5), Missing(), ValueOf(math.Inf(1))})
	if string(b) != "[1.5,null,null]" {
		t.Errorf("marshal %s", b)
	}
	var back []Value
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back[0].Valid || back[0].Float != 1.5 || back[1].Valid {
		t.Errorf("unmarshal %+v", back)
	}
	if Missing().String() != "—" || ValueOf(3.14159).String() != "3.14" {
		t.Error("String formatting")
	}
}

func TestSignal(t *testing.T) {
	if Buy.Score() != 1 || Sell.Score() != -1 || Neutral.Score() != 0 {
		t.Error("scores")
	}
	for _, s := range []Signal{Buy, Sell, Neutral} {
		got, err := ParseSignal(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSignal(%s) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseSignal("HOLD"); err == nil {
		t.Error("expected error for HOLD")
	}
	if FromSign(5) != Buy || FromSign(-2) != Sell || FromSign(0) != Neutral {
		t.Error("FromSign")
	}

	b, _ := json.Marshal(CombinedSignal{Verdict: Sell, Status: StatusNoData})
	var m map[string]interface{}
	json.Unmarshal(b, &m)
	if m["verdict"] != "SELL" || m["status"] != "no_data" {
		t.Errorf("combined JSON %s", b)
	}
}

func TestStatus(t *testing.T) {
	if StatusOK.DataUnavailable() || !StatusInsufficientData.DataUnavailable() {
		t.Error("DataUnavailable")
	}
	if StatusNoData.Label() != "no data" || StatusOK.Label() != "" {
		t.Error("Label")
	}
}

func TestItoa(t *testing.T) {
	for _, n := range []int{0, 7, -42, 123456} {
		if got, want := Itoa(n), strconv.Itoa(n); got != want {
			t.Errorf("Itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

