package gctoo

import (
	"fmt"
	"slices"
)

// MultiIndex is a read-only view joining every cell with its ids and
// metadata: one entry per (row, column) pair, keyed by
// (rid, row fields..., cid, col fields...). It is derived from a Dataset
// and never written back.
type MultiIndex struct {
	data             *Matrix
	rowMeta, colMeta *Table
	rowPos, colPos   map[string]int
}

func newMultiIndex(d *Dataset) *MultiIndex {
	m := &MultiIndex{data: d.data, rowMeta: d.rowMeta, colMeta: d.colMeta}
	m.rowPos = positions(d.data.rids)
	m.colPos = positions(d.data.cids)
	return m
}

// positions maps each id to its index.
func positions(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}

// Levels names the key components in order.
func (m *MultiIndex) Levels() []string {
	out := append([]string{"rid"}, m.rowMeta.fields...)
	out = append(out, "cid")
	return append(out, m.colMeta.fields...)
}

// Len is the number of cells.
func (m *MultiIndex) Len() int { return m.data.Rows() * m.data.Cols() }

// Key returns the key of the k-th cell in row-major order.
func (m *MultiIndex) Key(k int) []Value {
	i, j := k/m.data.Cols(), k%m.data.Cols()
	key := make([]Value, 0, 2+m.rowMeta.NumFields()+m.colMeta.NumFields())
	key = append(key, String(m.data.rids[i]))
	key = append(key, m.rowMeta.Row(i)...)
	key = append(key, String(m.data.cids[j]))
	return append(key, m.colMeta.Row(j)...)
}

// Value returns the k-th cell in row-major order.
func (m *MultiIndex) Value(k int) float64 { return m.data.values[k] }

// Cell returns the value at (rid, cid).
func (m *MultiIndex) Cell(rid, cid string) (float64, error) {
	i, ok := m.rowPos[rid]
	if !ok {
		return 0, fmt.Errorf("%w: rid %q", ErrUnknownIdentifier, rid)
	}
	j, ok := m.colPos[cid]
	if !ok {
		return 0, fmt.Errorf("%w: cid %q", ErrUnknownIdentifier, cid)
	}
	return m.data.At(i, j), nil
}

// XS fixes one level on one axis and returns the matching sub-dataset.
// The level is a metadata field of that axis or its id level ("rid" or
// "cid"). Numbers match across int and float kinds.
func (m *MultiIndex) XS(axis Axis, field string, v Value) (*Dataset, error) {
	t := m.rowMeta
	if axis == Cols {
		t = m.colMeta
	}
	var keys []Value
	if field == axis.IDName() {
		keys = make([]Value, t.Len())
		for i, id := range t.ids {
			keys[i] = String(id)
		}
	} else {
		col, ok := t.Column(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s field %q", ErrUnknownIdentifier, axis, field)
		}
		keys = col
	}
	pos := []int{}
	for i, k := range keys {
		if k.matches(v) {
			pos = append(pos, i)
		}
	}
	if axis == Cols {
		return New(m.data.Subset(nil, pos), m.rowMeta.Clone(), m.colMeta.Subset(pos))
	}
	return New(m.data.Subset(pos, nil), m.rowMeta.Subset(pos), m.colMeta.Clone())
}

// ToComponents returns copies of the matrix and both metadata tables.
func (m *MultiIndex) ToComponents() (*Matrix, *Table, *Table) {
	data := &Matrix{rids: slices.Clone(m.data.rids), cids: slices.Clone(m.data.cids), values: slices.Clone(m.data.values), f32: m.data.f32}
	return data, m.rowMeta.Clone(), m.colMeta.Clone()
}
