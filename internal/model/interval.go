package model

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the sampling period of a bar series.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// Intervals lists every supported interval, shortest first.
var Intervals = []Interval{Interval1m, Interval5m, Interval15m, Interval30m, Interval1h, Interval1d}

// ParseInterval parses an interval label. "60m" is accepted as an alias for "1h".
func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "60m" {
		return Interval1h, nil
	}
	for _, iv := range Intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", &ConfigError{Field: "interval", Reason: fmt.Sprintf("unsupported interval %q", s)}
}

func (i Interval) String() string { return string(i) }

// Duration returns the wall-clock length of one bar.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval1d:
		return 24 * time.Hour
	}
	return 0
}

// Intraday reports whether bars are shorter than a trading day.
func (i Interval) Intraday() bool {
	return i != Interval1d
}
