package model

import (
	"math"
	"strconv"
)

// Value is one indicator output: a finite number or missing.
// Missing covers warm-up bars and zero denominators.
type Value struct {
	Float float64
	Valid bool
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// ValueOf wraps f, mapping NaN and ±Inf to missing.
func ValueOf(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// String renders the value with two decimals, or "—" when missing.
func (v Value) String() string {
	if !v.Valid {
		return "—"
	}
	return strconv.FormatFloat(v.Float, 'f', 2, 64)
}

// MarshalJSON encodes missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Float, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*v = ValueOf(f)
	return nil
}
