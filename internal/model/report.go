package model

import (
	"encoding/json"
	"time"
)

// Status tells the presentation layer whether a verdict was actually computed.
type Status string

const (
	StatusOK               Status = "ok"
	StatusNoData           Status = "no_data"
	StatusInsufficientData Status = "insufficient_data"
	StatusFeedError        Status = "feed_error"
	StatusConfigError      Status = "config_error"
)

// DataUnavailable is true when the row must be shown as a "no data" marker
// rather than a computed verdict.
func (s Status) DataUnavailable() bool { return s != StatusOK }

// Label is the user-facing marker for the status.
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return ""
	case StatusNoData:
		return "no data"
	case StatusInsufficientData:
		return "insufficient data"
	case StatusFeedError:
		return "feed error"
	case StatusConfigError:
		return "config error"
	}
	return string(s)
}

// Reading is one indicator's latest value and the signal derived from it.
type Reading struct {
	Name       string           `json:"name"`
	Value      Value            `json:"value"`
	Components map[string]Value `json:"components,omitempty"`
	Signal     Signal           `json:"signal"`
}

// IndicatorReport holds every configured indicator's reading for one ticker
// at the latest bar.
type IndicatorReport struct {
	Ticker   string    `json:"ticker"`
	Interval Interval  `json:"interval"`
	TS       time.Time `json:"ts"`
	Close    Value     `json:"close"`
	Status   Status    `json:"status"`
	Readings []Reading `json:"readings"`
}

// Reading looks up a reading by indicator name.
func (r IndicatorReport) Reading(name string) (Reading, bool) {
	for _, rd := range r.Readings {
		if rd.Name == name {
			return rd, true
		}
	}
	return Reading{}, false
}

// Signals returns the per-indicator signals in report order.
func (r IndicatorReport) Signals() []Signal {
	out := make([]Signal, len(r.Readings))
	for i, rd := range r.Readings {
		out[i] = rd.Signal
	}
	return out
}

// CombinedSignal is the aggregate verdict for one ticker at one timestamp.
type CombinedSignal struct {
	Ticker        string    `json:"ticker"`
	TS            time.Time `json:"ts"`
	Verdict       Signal    `json:"verdict"`
	Score         int       `json:"score"`
	Participating int       `json:"participating_count"` // readings with a defined value
	Configured    int       `json:"configured_count"`
	Status        Status    `json:"status"`
}

// Evaluation is one rendered row: report, verdict and bookkeeping.
type Evaluation struct {
	Report   IndicatorReport `json:"report"`
	Combined CombinedSignal  `json:"combined"`
	Dropped  int             `json:"dropped_bars"`
	Err      string          `json:"error,omitempty"`
}

// Ticker returns the evaluated ticker.
func (e Evaluation) Ticker() string { return e.Report.Ticker }

// JSON returns the JSON-encoded evaluation (ignoring errors).
func (e Evaluation) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}
