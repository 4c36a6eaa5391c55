// Package index holds the in-process exact vector index.
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/shortlist/internal/domain"
)

// Flat is an exact inner-product index over row-ordered vectors.
// Rows keep insertion order, so row i always refers to the i-th added vector.
// Callers are expected to add L2-normalized vectors; the index does not normalize.
type Flat struct {
	mu   sync.RWMutex
	dim  int
	rows [][]float32
}

// NewFlat creates an empty index for vectors of dimension dim.
// dim <= 0 lets the first Add fix the dimension.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Add appends vectors as new rows, preserving their order.
// All vectors must share the index dimension.
func (f *Flat) Add(vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dim := f.dim
	for i, v := range vectors {
		if dim <= 0 {
			dim = len(v)
		}
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("row %d has %d dims, index expects %d: %w",
				len(f.rows)+i, len(v), dim, domain.ErrVectorDimMismatch)
		}
	}

	f.dim = dim
	for _, v := range vectors {
		row := make([]float32, len(v))
		copy(row, v)
		f.rows = append(f.rows, row)
	}
	return nil
}

// Len returns the number of rows.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rows)
}

// Dim returns the vector dimension, 0 while empty and unset.
func (f *Flat) Dim() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}

// Search returns up to k rows with the highest inner product against q, best first.
// k is clamped to the row count; k <= 0 or an empty index yields empty results.
// Equal scores keep the lower row first.
func (f *Flat) Search(q []float32, k int) (scores []float64, rows []int, err error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.rows)
	if n == 0 || k <= 0 {
		return []float64{}, []int{}, nil
	}
	if len(q) != f.dim {
		return nil, nil, fmt.Errorf("query has %d dims, index expects %d: %w",
			len(q), f.dim, domain.ErrVectorDimMismatch)
	}
	if k > n {
		k = n
	}

	all := make([]float64, n)
	order := make([]int, n)
	for i, row := range f.rows {
		all[i] = domain.Dot(q, row)
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return all[order[a]] > all[order[b]]
	})

	scores = make([]float64, k)
	rows = make([]int, k)
	for i := range k {
		rows[i] = order[i]
		scores[i] = all[order[i]]
	}
	return scores, rows, nil
}
