// Package scoring combines indicator, sentiment, and fundamental inputs
// into bounded composite scores with threshold-mapped verdicts.
//
// Both scoring regimes (the 1-10 buy score and the 100-point institutional
// score) are instances of the same pattern: a set of independently bounded
// components summed into a total, mapped to a label through a strictly
// descending threshold table.
package scoring

import (
	"fmt"
	"sort"
)

// Component is one bounded contributor to a composite score. Eval returns
// the component value and whether the inputs it needs were available; the
// value is clamped to [0, Max] before summation so a misbehaving rule can
// never push the composite past its bound.
type Component[T any] struct {
	Name string
	Max  float64
	// Default is used when Eval reports unavailable inputs.
	Default float64
	Eval    func(in T) (float64, bool)
}

// Composite sums a fixed set of components.
type Composite[T any] struct {
	components []Component[T]
}

// NewComposite creates a composite scorer over the given components.
func NewComposite[T any](components ...Component[T]) *Composite[T] {
	return &Composite[T]{components: components}
}

// Score evaluates every component against the input and returns the total
// and the per-component breakdown. A component whose inputs are missing
// contributes its Default.
func (c *Composite[T]) Score(in T) (float64, map[string]float64) {
	parts := make(map[string]float64, len(c.components))
	var total float64

	for _, comp := range c.components {
		value, ok := comp.Eval(in)
		if !ok {
			value = comp.Default
		}
		value = clamp(value, 0, comp.Max)
		parts[comp.Name] = value
		total += value
	}

	return total, parts
}

// MaxTotal returns the sum of all component bounds.
func (c *Composite[T]) MaxTotal() float64 {
	var total float64
	for _, comp := range c.components {
		total += comp.Max
	}
	return total
}

// Threshold is one row of a threshold table: scores at or above Min map to
// Label, unless a higher row matches first.
type Threshold struct {
	Min   float64
	Label string
}

// ThresholdTable maps a score to a label through strictly descending
// thresholds. Scores below every threshold map to the fallback label.
type ThresholdTable struct {
	rows     []Threshold
	fallback string
}

// NewThresholdTable validates that thresholds are strictly descending and
// returns the table. Ambiguous (equal or ascending) thresholds are a
// configuration error.
func NewThresholdTable(rows []Threshold, fallback string) (*ThresholdTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("threshold table needs at least one row")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Min >= rows[i-1].Min {
			return nil, fmt.Errorf("thresholds must be strictly descending: %q (%.2f) >= %q (%.2f)",
				rows[i].Label, rows[i].Min, rows[i-1].Label, rows[i-1].Min)
		}
	}
	return &ThresholdTable{rows: rows, fallback: fallback}, nil
}

// Map returns the label for a score. Mapping is monotonic: a higher score
// never yields a lower-ranked label.
func (t *ThresholdTable) Map(score float64) string {
	idx := sort.Search(len(t.rows), func(i int) bool {
		return score >= t.rows[i].Min
	})
	if idx == len(t.rows) {
		return t.fallback
	}
	return t.rows[idx].Label
}

// Rank returns the position of a score's label in the table, with 0 the
// fallback and len(rows) the top label. Useful for monotonicity checks.
func (t *ThresholdTable) Rank(score float64) int {
	idx := sort.Search(len(t.rows), func(i int) bool {
		return score >= t.rows[i].Min
	})
	return len(t.rows) - idx
}

// clamp restricts a value to the given range.
func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
