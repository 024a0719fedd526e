// Package units provides a measured value paired with its unit label.
package units

import (
	"encoding/json"
	"fmt"
)

// Well-known unit labels reported by the vehicle backend.
const (
	Kilometers = "km"
	Miles      = "mi"
)

// ValueWithUnit pairs a numeric value with its unit.
// The zero value is the empty pair: no value and no unit.
type ValueWithUnit struct {
	Value *int64 `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// New returns a ValueWithUnit holding v measured in unit.
func New(v int64, unit string) ValueWithUnit {
	return ValueWithUnit{Value: &v, Unit: unit}
}

// IsSet reports whether the pair carries a value.
func (v ValueWithUnit) IsSet() bool {
	return v.Value != nil
}

// Equal compares values, not pointers.
func (v ValueWithUnit) Equal(o ValueWithUnit) bool {
	if v.Unit != o.Unit || v.IsSet() != o.IsSet() {
		return false
	}
	return !v.IsSet() || *v.Value == *o.Value
}

func (v ValueWithUnit) String() string {
	if !v.IsSet() {
		return ""
	}
	if v.Unit == "" {
		return fmt.Sprintf("%d", *v.Value)
	}
	return fmt.Sprintf("%d %s", *v.Value, v.Unit)
}

// MarshalJSON renders the empty pair as null.
func (v ValueWithUnit) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	type plain ValueWithUnit
	return json.Marshal(plain(v))
}
