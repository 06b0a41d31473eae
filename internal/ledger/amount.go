package ledger

import (
	"bytes"
	"fmt"
	"strconv"
)

// Amount is an optional money value as submitted from an entry form. A blank
// field ("" or null or absent) is distinct from an explicit 0: blank means the
// operator never filled it in, and downstream computation treats it as 0
// without persisting a zero.
type Amount struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string, or
// null. Empty string and null both decode as blank.
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Value = 0
	a.Valid = false

	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s := string(data[1 : len(data)-1])
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		a.Value = v
		a.Valid = true
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	a.Value = v
	a.Valid = true
	return nil
}

// MarshalJSON emits the number, or null when blank
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, a.Value, 'f', -1, 64), nil
}

// Ptr converts to the storage representation: nil when blank
func (a Amount) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// Or returns the value, or the fallback when blank
func (a Amount) Or(fallback float64) float64 {
	if !a.Valid {
		return fallback
	}
	return a.Value
}

// FromPtr converts from the storage representation
func FromPtr(v *float64) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{Value: *v, Valid: true}
}
