package models

import (
	"database/sql"
	"fmt"
)

// OptFloat is an optional float64. An invalid OptFloat means the value
// could not be computed (for indicators, insufficient history), which is
// distinct from a value of zero.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid OptFloat holding v.
func Float(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// NullFloat returns an invalid OptFloat.
func NullFloat() OptFloat {
	return OptFloat{}
}

// Ptr returns a pointer to the value, or nil when invalid.
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// Or returns the value when valid, otherwise the fallback.
func (o OptFloat) Or(fallback float64) float64 {
	if o.Valid {
		return o.Value
	}
	return fallback
}

// Scan implements sql.Scanner.
func (o *OptFloat) Scan(src interface{}) error {
	var nf sql.NullFloat64
	if err := nf.Scan(src); err != nil {
		return fmt.Errorf("failed to scan optional float: %w", err)
	}
	o.Value = nf.Float64
	o.Valid = nf.Valid
	return nil
}

// NullFloat64 converts to the database/sql representation.
func (o OptFloat) NullFloat64() sql.NullFloat64 {
	return sql.NullFloat64{Float64: o.Value, Valid: o.Valid}
}

// String renders the value or "n/a" when invalid.
func (o OptFloat) String() string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", o.Value)
}
