// Package models provides the market data types returned by the HSI tools.
package models

import (
	"encoding/json"
	"math"
)

// NumericField is a parsed decimal value that may be absent.
// Source records the strategy that produced the value (for example
// "selector:.hkidx-last" or "ajax:a") so fallbacks can be traced in logs.
type NumericField struct {
	Value  float64
	Valid  bool
	Source string
}

// Present returns a populated field. NaN and infinite values are treated as absent.
func Present(value float64, source string) NumericField {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NumericField{}
	}
	return NumericField{Value: value, Valid: true, Source: source}
}

// Absent returns an empty field
func Absent() NumericField {
	return NumericField{}
}

// Float64 returns the value and whether it is present
func (f NumericField) Float64() (float64, bool) {
	return f.Value, f.Valid
}

// WithSource returns a copy tagged with the given source
func (f NumericField) WithSource(source string) NumericField {
	if !f.Valid {
		return f
	}
	f.Source = source
	return f
}

// Abs returns the magnitude of the field
func (f NumericField) Abs() NumericField {
	if !f.Valid {
		return f
	}
	f.Value = math.Abs(f.Value)
	return f
}

// Signed returns the magnitude with the sign implied by direction.
// An unknown direction leaves the value untouched.
func (f NumericField) Signed(direction Direction) NumericField {
	if !f.Valid {
		return f
	}
	switch direction {
	case DirectionUp:
		f.Value = math.Abs(f.Value)
	case DirectionDown:
		f.Value = -math.Abs(f.Value)
	}
	return f
}

// MarshalJSON encodes the value as a number, or null when absent
func (f NumericField) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes a number or null
func (f *NumericField) UnmarshalJSON(data []byte) error {
	var value *float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == nil {
		*f = NumericField{}
		return nil
	}
	*f = Present(*value, f.Source)
	return nil
}

// Direction is the market movement implied by a glyph, CSS class or sign token
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionUp
	DirectionDown
)

// String returns a short label used in logs
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}

// ChangeValue is a point change and a percent change that always share a sign
type ChangeValue struct {
	Point   NumericField
	Percent NumericField
}

// WithDirection applies one sign to both components
func (c ChangeValue) WithDirection(direction Direction) ChangeValue {
	return ChangeValue{
		Point:   c.Point.Signed(direction),
		Percent: c.Percent.Signed(direction),
	}
}

// IsEmpty reports whether neither component was parsed
func (c ChangeValue) IsEmpty() bool {
	return !c.Point.Valid && !c.Percent.Valid
}
