package gctoo

import (
	"fmt"
	"math"
	"slices"
)

// Matrix is a dense rids × cids float matrix stored row-major.
type Matrix struct {
	rids, cids []string
	values     []float64
	f32        bool
}

// NewMatrix wraps values, which must hold len(rids)*len(cids) elements.
func NewMatrix(rids, cids []string, values []float64) (*Matrix, error) {
	if len(values) != len(rids)*len(cids) {
		return nil, fmt.Errorf("%w: %d values for a %d x %d matrix", ErrMalformedDimensions, len(values), len(rids), len(cids))
	}
	return &Matrix{rids: slices.Clone(rids), cids: slices.Clone(cids), values: values}, nil
}

// NewMatrix32 widens float32 values and marks the matrix as float32
// precision, so writers store it at that width again.
func NewMatrix32(rids, cids []string, values []float32) (*Matrix, error) {
	wide := make([]float64, len(values))
	for i, v := range values {
		wide[i] = float64(v)
	}
	m, err := NewMatrix(rids, cids, wide)
	if err != nil {
		return nil, err
	}
	m.f32 = true
	return m, nil
}

// NaNMatrix returns a matrix of the given ids filled with NaN.
func NaNMatrix(rids, cids []string) *Matrix {
	values := make([]float64, len(rids)*len(cids))
	for i := range values {
		values[i] = math.NaN()
	}
	return &Matrix{rids: slices.Clone(rids), cids: slices.Clone(cids), values: values}
}

// RowIDs returns a copy of the row ids.
func (m *Matrix) RowIDs() []string { return slices.Clone(m.rids) }

// ColIDs returns a copy of the column ids.
func (m *Matrix) ColIDs() []string { return slices.Clone(m.cids) }

// Rows and Cols are the matrix dimensions.
func (m *Matrix) Rows() int { return len(m.rids) }
// Cols is the number of columns.
func (m *Matrix) Cols() int { return len(m.cids) }

// Values is the row-major backing array. Writes through it change the
// matrix; the ids cannot be changed this way.
func (m *Matrix) Values() []float64 { return m.values }

// IsFloat32 reports whether the values came from float32 storage.
func (m *Matrix) IsFloat32() bool { return m.f32 }

// At and Set address the cell at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.values[i*len(m.cids)+j] }
// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float64) { m.values[i*len(m.cids)+j] = v }

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float64 {
	n := len(m.cids)
	return m.values[i*n : (i+1)*n]
}

// Float32s narrows the values to float32, row-major.
func (m *Matrix) Float32s() []float32 {
	out := make([]float32, len(m.values))
	for i, v := range m.values {
		out[i] = float32(v)
	}
	return out
}

// Subset returns the cells at rowPos × colPos. A nil position list keeps
// the whole axis.
func (m *Matrix) Subset(rowPos, colPos []int) *Matrix {
	if rowPos == nil {
		rowPos = FullRange(len(m.rids))
	}
	if colPos == nil {
		colPos = FullRange(len(m.cids))
	}
	out := &Matrix{rids: make([]string, len(rowPos)), cids: make([]string, len(colPos)), values: make([]float64, 0, len(rowPos)*len(colPos)), f32: m.f32}
	for k, p := range rowPos {
		out.rids[k] = m.rids[p]
	}
	for k, p := range colPos {
		out.cids[k] = m.cids[p]
	}
	for _, i := range rowPos {
		row := m.Row(i)
		for _, j := range colPos {
			out.values = append(out.values, row[j])
		}
	}
	return out
}

// Transpose returns the cids × rids matrix.
func (m *Matrix) Transpose() *Matrix {
	r, c := len(m.rids), len(m.cids)
	out := &Matrix{rids: slices.Clone(m.cids), cids: slices.Clone(m.rids), values: make([]float64, r*c), f32: m.f32}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.values[j*r+i] = m.values[i*c+j]
		}
	}
	return out
}

// WithIDs returns a copy with the ids replaced.
func (m *Matrix) WithIDs(rids, cids []string) (*Matrix, error) {
	if len(rids) != len(m.rids) || len(cids) != len(m.cids) {
		return nil, fmt.Errorf("%w: relabeling a %d x %d matrix with %d x %d ids", ErrMalformedDimensions, len(m.rids), len(m.cids), len(rids), len(cids))
	}
	return &Matrix{rids: slices.Clone(rids), cids: slices.Clone(cids), values: slices.Clone(m.values), f32: m.f32}, nil
}

// Equal compares ids and values. NaN equals NaN; the precision flag is
// ignored.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return slices.Equal(m.rids, o.rids) && slices.Equal(m.cids, o.cids) &&
		slices.EqualFunc(m.values, o.values, func(a, b float64) bool {
			return a == b || (math.IsNaN(a) && math.IsNaN(b))
		})
}
