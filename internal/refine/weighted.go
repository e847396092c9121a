package refine

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
)

// Weighted is one row of a weighted-choice table.
type Weighted[T any] struct {
	Weight float64
	Value  T
}

// WeightedChoice draws values with probability proportional to their weight.
type WeightedChoice[T any] struct {
	table []Weighted[T]
	total float64
}

// NewWeightedChoice validates table. Weights must be non-negative with a
// positive sum.
func NewWeightedChoice[T any](table []Weighted[T]) (*WeightedChoice[T], error) {
	if len(table) == 0 {
		return nil, eris.New("refine: weighted table is empty")
	}
	var total float64
	for i, row := range table {
		if row.Weight < 0 {
			return nil, eris.Errorf("refine: weighted table row %d has negative weight %v", i, row.Weight)
		}
		total += row.Weight
	}
	if total <= 0 {
		return nil, eris.New("refine: weighted table has no positive weight")
	}
	rows := make([]Weighted[T], len(table))
	copy(rows, table)
	return &WeightedChoice[T]{table: rows, total: total}, nil
}

// Pick maps u in [0, 1) onto the cumulative weights.
func (w *WeightedChoice[T]) Pick(u float64) T {
	target := u * w.total
	var cum float64
	for _, row := range w.table {
		cum += row.Weight
		if target < cum {
			return row.Value
		}
	}
	// u >= 1 or rounding at the upper edge: last row with weight.
	for i := len(w.table) - 1; i >= 0; i-- {
		if w.table[i].Weight > 0 {
			return w.table[i].Value
		}
	}
	return w.table[len(w.table)-1].Value
}

// Draw picks a value using r, or the global source when r is nil.
func (w *WeightedChoice[T]) Draw(r *rand.Rand) T {
	if r == nil {
		return w.Pick(rand.Float64())
	}
	return w.Pick(r.Float64())
}
