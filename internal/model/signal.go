package model

import (
	"fmt"
	"strings"
)

// Signal is the categorical call attached to one indicator, or the combined verdict.
type Signal int8

const (
	Neutral Signal = 0
	Buy     Signal = 1
	Sell    Signal = -1
)

// Score returns the aggregation weight: BUY=+1, SELL=-1, NEUTRAL=0.
func (s Signal) Score() int { return int(s) }

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NEUTRAL"
	}
}

// ParseSignal parses "BUY", "SELL" or "NEUTRAL" (case-insensitive).
func ParseSignal(s string) (Signal, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	case "NEUTRAL":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("unknown signal %q", s)
}

func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signal) UnmarshalText(b []byte) error {
	v, err := ParseSignal(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// FromSign maps the sign of n to a Signal.
func FromSign(n int) Signal {
	switch {
	case n > 0:
		return Buy
	case n < 0:
		return Sell
	}
	return Neutral
}
