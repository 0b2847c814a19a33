package gctoo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Subset returns the rows at rowPos and the columns at colPos, in the
// given order. A nil list keeps the whole axis.
func Subset(d *Dataset, rowPos, colPos []int) (*Dataset, error) {
	nr, nc := d.Shape()
	if err := checkPositions(rowPos, nr); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if err := checkPositions(colPos, nc); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if rowPos == nil {
		rowPos = FullRange(nr)
	}
	if colPos == nil {
		colPos = FullRange(nc)
	}
	var (
		m        *Matrix
		row, col *Table
	)
	if d.data != nil {
		m = d.data.Subset(rowPos, colPos)
	}
	if d.rowMeta != nil {
		row = d.rowMeta.Subset(rowPos)
	}
	if d.colMeta != nil {
		col = d.colMeta.Subset(colPos)
	}
	return New(m, row, col, WithSrc(d.Src), WithVersion(d.Version))
}

// checkPositions requires every position to be within [0, n).
func checkPositions(pos []int, n int) error {
	for _, p := range pos {
		if p < 0 || p >= n {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrPositionOutOfRange, p, n)
		}
	}
	return nil
}

// Select resolves both selectors against d and returns the sub-dataset in
// ascending storage order.
func Select(d *Dataset, rows, cols Selector) (*Dataset, error) {
	rowPos, colPos, err := ResolveSelectors(d.RowIDs(), d.ColIDs(), rows, cols)
	if err != nil {
		return nil, err
	}
	return Subset(d, rowPos, colPos)
}

// SliceMask keeps the rows and columns whose mask entry is true. A nil
// mask keeps the whole axis.
func SliceMask(d *Dataset, rowMask, colMask []bool) (*Dataset, error) {
	nr, nc := d.Shape()
	rowPos, err := maskPositions(rowMask, nr)
	if err != nil {
		return nil, fmt.Errorf("row mask: %w", err)
	}
	colPos, err := maskPositions(colMask, nc)
	if err != nil {
		return nil, fmt.Errorf("column mask: %w", err)
	}
	return Subset(d, rowPos, colPos)
}

// maskPositions turns a keep-mask into positions. A nil mask keeps the
// whole axis.
func maskPositions(mask []bool, n int) ([]int, error) {
	if mask == nil {
		return nil, nil
	}
	if len(mask) != n {
		return nil, fmt.Errorf("%w: %d entries for an axis of %d", ErrMalformedDimensions, len(mask), n)
	}
	pos := []int{}
	for i, keep := range mask {
		if keep {
			pos = append(pos, i)
		}
	}
	return pos, nil
}

// Transpose swaps the axes of d: rows become columns and the metadata
// tables trade places.
func Transpose(d *Dataset) (*Dataset, error) {
	var (
		m        *Matrix
		row, col *Table
	)
	if d.data != nil {
		m = d.data.Transpose()
	}
	if d.colMeta != nil {
		row = d.colMeta.Clone()
		row.Axis = Rows
	}
	if d.rowMeta != nil {
		col = d.rowMeta.Clone()
		col.Axis = Cols
	}
	return New(m, row, col, WithSrc(d.Src), WithVersion(d.Version))
}

// HStack concatenates datasets column-wise.
//
// Row metadata of all inputs, minus fieldsToRemove, is merged: rows that
// repeat identically collapse, and a rid whose metadata differs between
// inputs is an error. The result is sorted by rid. Column metadata is
// concatenated in input order. A rid absent from one input reads NaN in
// that input's columns. With resetIDs the cids become "0".."n-1" and the
// old cids move to a leading "old_cid" field.
func HStack(ds []*Dataset, fieldsToRemove []string, resetIDs bool) (*Dataset, error) {
	return hstack(ds, fieldsToRemove, resetIDs, "old_cid")
}

// VStack concatenates datasets row-wise; it is HStack with the axes
// swapped, and resetIDs moves the old rids to "old_rid".
func VStack(ds []*Dataset, fieldsToRemove []string, resetIDs bool) (*Dataset, error) {
	flipped := make([]*Dataset, len(ds))
	for i, d := range ds {
		t, err := Transpose(d)
		if err != nil {
			return nil, err
		}
		flipped[i] = t
	}
	out, err := hstack(flipped, fieldsToRemove, resetIDs, "old_rid")
	if err != nil {
		return nil, err
	}
	return Transpose(out)
}

// hstack joins datasets along columns. Row metadata is merged by rid and
// must agree; column metadata is concatenated.
func hstack(ds []*Dataset, fieldsToRemove []string, resetIDs bool, oldField string) (*Dataset, error) {
	if len(ds) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrMalformedDimensions)
	}
	// Stacking side by side merges row metadata and appends column metadata.
	rows := make([]*Table, len(ds))
	cols := make([]*Table, len(ds))
	for i, d := range ds {
		rows[i] = metaOrIDs(d.rowMeta, Rows, d.RowIDs()).Without(fieldsToRemove...)
		cols[i] = metaOrIDs(d.colMeta, Cols, d.ColIDs())
	}
	rowMeta, err := mergeRows(rows)
	if err != nil {
		return nil, err
	}
	colMeta := concatTables(Cols, cols)

	// Rows missing from an input stay NaN; the result is float32 only if every input is.
	f32 := true
	m := NaNMatrix(rowMeta.ids, colMeta.ids)
	off := 0
	for _, d := range ds {
		if d.data == nil {
			f32 = false
			off += len(d.ColIDs())
			continue
		}
		f32 = f32 && d.data.f32
		src := positions(d.data.rids)
		for i, rid := range rowMeta.ids {
			k, ok := src[rid]
			if !ok {
				continue
			}
			copy(m.Row(i)[off:off+d.data.Cols()], d.data.Row(k))
		}
		off += d.data.Cols()
	}
	m.f32 = f32

	// Reset column ids to positions, keeping the old ones as a metadata field.
	if resetIDs {
		ids := make([]string, colMeta.Len())
		old := make([]Value, colMeta.Len())
		for i, id := range colMeta.ids {
			ids[i] = strconv.Itoa(i)
			old[i] = String(id)
		}
		colMeta = &Table{
			Axis:   Cols,
			ids:    ids,
			fields: append([]string{oldField}, colMeta.fields...),
			cols:   append([][]Value{old}, colMeta.cols...),
		}
		m.cids = slices.Clone(ids)
	}
	return New(m, rowMeta, colMeta, WithVersion(ds[0].Version))
}

// metaOrIDs stands in an id-only table for missing metadata.
func metaOrIDs(t *Table, axis Axis, ids []string) *Table {
	if t != nil {
		return t
	}
	return NewTable(axis, ids)
}

// unionFields lists every field of tables in first-seen order.
func unionFields(tables []*Table) []string {
	var out []string
	for _, t := range tables {
		for _, f := range t.fields {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// widen returns the row of t at i over fields, missing where t lacks one.
func widen(t *Table, i int, fields []string) []Value {
	out := make([]Value, len(fields))
	for j, f := range fields {
		if col, ok := t.Column(f); ok {
			out[j] = col[i]
		}
	}
	return out
}

// concatTables appends the ids and rows of tables, filling fields a
// table lacks with missing values.
func concatTables(axis Axis, tables []*Table) *Table {
	fields := unionFields(tables)
	out := &Table{Axis: axis, fields: fields, cols: make([][]Value, len(fields))}
	for _, t := range tables {
		out.ids = append(out.ids, t.ids...)
		for i := range t.ids {
			for j, v := range widen(t, i, fields) {
				out.cols[j] = append(out.cols[j], v)
			}
		}
	}
	return out
}

// mergeRows unions row tables keyed by rid. A rid present in several
// tables must carry the same values. Rids come out sorted.
func mergeRows(tables []*Table) (*Table, error) {
	fields := unionFields(tables)
	merged := make(map[string][]Value)
	for _, t := range tables {
		for i, id := range t.ids {
			row := widen(t, i, fields)
			prev, ok := merged[id]
			if !ok {
				merged[id] = row
				continue
			}
			if !slices.EqualFunc(prev, row, Value.Equal) {
				return nil, fmt.Errorf("%w: metadata for rid %q does not agree between inputs", ErrInvariantViolation, id)
			}
		}
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := &Table{Axis: Rows, ids: ids, fields: fields, cols: make([][]Value, len(fields))}
	for j := range fields {
		col := make([]Value, len(ids))
		for i, id := range ids {
			col[i] = merged[id][j]
		}
		out.cols[j] = col
	}
	return out, nil
}

// RandomSubset samples n distinct positions of one axis, keeps the other
// axis whole, and relabels both axes: ids become "0".."k-1", or random
// UUIDs when useUUIDs is set. n must be below the axis length. The
// sample order is kept.
func RandomSubset(d *Dataset, n int, axis Axis, rng *rand.Rand, useUUIDs bool) (*Dataset, error) {
	nr, nc := d.Shape()
	size := nr
	if axis == Cols {
		size = nc
	}
	if n < 0 || n >= size {
		return nil, fmt.Errorf("%w: cannot sample %d of %d %ss", ErrPositionOutOfRange, n, size, axis)
	}
	pick := rng.Perm(size)[:n]
	var sub *Dataset
	var err error
	if axis == Cols {
		sub, err = Subset(d, nil, pick)
	} else {
		sub, err = Subset(d, pick, nil)
	}
	if err != nil {
		return nil, err
	}
	r, c := sub.Shape()
	return relabel(sub, labels(r, rng, useUUIDs), labels(c, rng, useUUIDs))
}

// labels returns n ids: "0".."n-1", or UUIDs drawn from rng.
func labels(n int, rng *rand.Rand, useUUIDs bool) []string {
	out := make([]string, n)
	for i := range out {
		if !useUUIDs {
			out[i] = strconv.Itoa(i)
			continue
		}
		var seed [16]byte
		binary.LittleEndian.PutUint64(seed[:8], rng.Uint64())
		binary.LittleEndian.PutUint64(seed[8:], rng.Uint64())
		id, err := uuid.NewRandomFromReader(bytes.NewReader(seed[:]))
		if err != nil {
			// 16 bytes are always available.
			panic(err)
		}
		out[i] = id.String()
	}
	return out
}

// relabel swaps in new ids on every component of d.
func relabel(d *Dataset, rids, cids []string) (*Dataset, error) {
	var (
		m        *Matrix
		row, col *Table
		err      error
	)
	if d.data != nil {
		if m, err = d.data.WithIDs(rids, cids); err != nil {
			return nil, err
		}
	}
	if d.rowMeta != nil {
		if row, err = d.rowMeta.WithIDs(rids); err != nil {
			return nil, err
		}
	}
	if d.colMeta != nil {
		if col, err = d.colMeta.WithIDs(cids); err != nil {
			return nil, err
		}
	}
	return New(m, row, col, WithSrc(d.Src), WithVersion(d.Version))
}

