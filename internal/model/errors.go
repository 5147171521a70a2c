package model

import (
	"errors"
	"time"
)

var (
	// ErrDataUnavailable marks an empty or too-short bar series.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedBar marks a bar that breaks the OHLC invariant.
	ErrMalformedBar = errors.New("malformed bar")

	// ErrConfiguration marks an invalid indicator or engine setting.
	ErrConfiguration = errors.New("configuration error")
)

// MalformedBarError describes a rejected bar.
type MalformedBarError struct {
	TS     time.Time
	Reason string
}

func (e *MalformedBarError) Error() string {
	return "malformed bar at " + e.TS.Format(time.RFC3339) + ": " + e.Reason
}

func (e *MalformedBarError) Unwrap() error { return ErrMalformedBar }

// ConfigError names the offending setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config " + e.Field + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }
