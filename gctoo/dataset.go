package gctoo

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// State is the lifecycle stage of a Dataset.
type State uint8

// States in the order a Dataset passes through them.
const (
	Uninitialized State = iota
	ComponentsAssigned
	Validated
	MultiIndexBuilt
	Ready
)

// String names the state in lower case.
func (s State) String() string {
	switch s {
	case ComponentsAssigned:
		return "components assigned"
	case Validated:
		return "validated"
	case MultiIndexBuilt:
		return "multi-index built"
	case Ready:
		return "ready"
	}
	return "uninitialized"
}

// DefaultVersion is the format version of datasets built in memory.
const DefaultVersion = "GCTX1.0"

// Dataset is a matrix with its row and column metadata. Any component
// may be nil; the ones present are kept consistent with each other.
type Dataset struct {
	Src     string
	Version string

	data    *Matrix
	rowMeta *Table
	colMeta *Table
	multi   *MultiIndex
	state   State
}

// Option configures New.
type Option func(*options)

type options struct {
	src, version string
	multiIndex   bool
}

// WithSrc records where the dataset came from.
func WithSrc(src string) Option { return func(o *options) { o.src = src } }

// WithVersion overrides DefaultVersion.
func WithVersion(version string) Option { return func(o *options) { o.version = version } }

// WithMultiIndex builds the combined view during New.
func WithMultiIndex() Option { return func(o *options) { o.multiIndex = true } }

// New assembles and validates a dataset. Nothing is returned when
// validation fails.
func New(data *Matrix, rowMeta, colMeta *Table, opts ...Option) (*Dataset, error) {
	o := options{version: DefaultVersion}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Dataset{Src: o.src, Version: o.version}
	if data != nil || rowMeta != nil || colMeta != nil {
		d.data, d.rowMeta, d.colMeta = data, adopt(rowMeta), adopt(colMeta)
		d.state = ComponentsAssigned
	}
	if err := validate(d.data, d.rowMeta, d.colMeta); err != nil {
		return nil, err
	}
	d.state = Validated
	if o.multiIndex && d.complete() {
		if _, err := d.MultiIndex(); err != nil {
			return nil, err
		}
		return d, nil
	}
	d.state = Ready
	return d, nil
}

// adopt copies t so that later changes to the caller's table do not reach
// the dataset, and marks the copy as owned.
func adopt(t *Table) *Table {
	if t == nil {
		return nil
	}
	c := t.Clone()
	c.owned = true
	return c
}

// State reports how far New got.
func (d *Dataset) State() State { return d.state }

// Data returns the matrix, which may be nil. Cell values may be changed
// through it; ids may not.
func (d *Dataset) Data() *Matrix { return d.data }

// RowMeta returns the row metadata or nil. The table is read-only:
// AddField on it fails, and its accessors return copies.
func (d *Dataset) RowMeta() *Table { return d.rowMeta }

// ColMeta returns the column metadata or nil, read-only like RowMeta.
func (d *Dataset) ColMeta() *Table { return d.colMeta }

func (d *Dataset) complete() bool { return d.data != nil && d.rowMeta != nil && d.colMeta != nil }

// RowIDs returns a copy of the row ids from the matrix or, without one,
// from the row metadata.
func (d *Dataset) RowIDs() []string { return slices.Clone(d.rowIDs()) }

// ColIDs mirrors RowIDs for columns.
func (d *Dataset) ColIDs() []string { return slices.Clone(d.colIDs()) }

func (d *Dataset) rowIDs() []string {
	switch {
	case d.data != nil:
		return d.data.rids
	case d.rowMeta != nil:
		return d.rowMeta.ids
	}
	return nil
}

func (d *Dataset) colIDs() []string {
	switch {
	case d.data != nil:
		return d.data.cids
	case d.colMeta != nil:
		return d.colMeta.ids
	}
	return nil
}

// Shape is (rows, columns).
func (d *Dataset) Shape() (int, int) { return len(d.rowIDs()), len(d.colIDs()) }

// SetData replaces the matrix. On failure d is left unchanged.
func (d *Dataset) SetData(m *Matrix) error {
	return d.replace(m, d.rowMeta, d.colMeta)
}

// SetRowMeta replaces the row metadata. On failure d is left unchanged.
func (d *Dataset) SetRowMeta(t *Table) error {
	return d.replace(d.data, t, d.colMeta)
}

// SetColMeta replaces the column metadata. On failure d is left unchanged.
func (d *Dataset) SetColMeta(t *Table) error {
	return d.replace(d.data, d.rowMeta, t)
}

// replace installs a new set of components after validating them
// together. On failure d is unchanged.
func (d *Dataset) replace(m *Matrix, row, col *Table) error {
	if err := validate(m, row, col); err != nil {
		return err
	}
	// Tables already held by d are kept as they are.
	if row != d.rowMeta {
		row = adopt(row)
	}
	if col != d.colMeta {
		col = adopt(col)
	}
	d.data, d.rowMeta, d.colMeta = m, row, col
	d.multi = nil
	d.state = Ready
	return nil
}

// MultiIndex returns the combined view, building it when needed. It
// requires all three components.
func (d *Dataset) MultiIndex() (*MultiIndex, error) {
	if d.multi != nil {
		return d.multi, nil
	}
	if !d.complete() {
		return nil, fmt.Errorf("%w: multi-index needs data, row and column metadata", ErrInvariantViolation)
	}
	d.multi = newMultiIndex(d)
	d.state = MultiIndexBuilt
	return d.multi, nil
}

// validate checks id uniqueness, field uniqueness, then rid and cid
// agreement, in that order.
func validate(m *Matrix, row, col *Table) error {
	type idList struct {
		what string
		ids  []string
	}
	var lists []idList
	if m != nil {
		lists = append(lists, idList{"data rids", m.rids}, idList{"data cids", m.cids})
	}
	if row != nil {
		lists = append(lists, idList{"row metadata ids", row.ids})
	}
	if col != nil {
		lists = append(lists, idList{"column metadata ids", col.ids})
	}
	// Duplicates are reported before any id mismatch.
	for _, l := range lists {
		if dup := duplicates(l.ids); len(dup) > 0 {
			return fmt.Errorf("%w: duplicate %s %v", ErrInvariantViolation, l.what, dup)
		}
	}
	for _, t := range []*Table{row, col} {
		if t == nil {
			continue
		}
		if dup := duplicates(t.fields); len(dup) > 0 {
			return fmt.Errorf("%w: duplicate %s metadata fields %v", ErrInvariantViolation, t.Axis, dup)
		}
	}
	// Metadata ids must match the matrix ids in order.
	if m != nil && row != nil && !slices.Equal(m.rids, row.ids) {
		return fmt.Errorf("%w: data rids and row metadata ids differ: %s", ErrInvariantViolation, mismatch(m.rids, row.ids))
	}
	if m != nil && col != nil && !slices.Equal(m.cids, col.ids) {
		return fmt.Errorf("%w: data cids and column metadata ids differ: %s", ErrInvariantViolation, mismatch(m.cids, col.ids))
	}
	return nil
}

// duplicates returns each id that occurs more than once, in order of
// first repetition.
func duplicates(ids []string) []string {
	seen := make(map[string]int, len(ids))
	var dup []string
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dup = append(dup, id)
		}
	}
	return dup
}

// mismatch describes the first differences between two id lists.
func mismatch(a, b []string) string {
	if len(a) != len(b) {
		return fmt.Sprintf("%d ids vs %d ids", len(a), len(b))
	}
	var diffs []string
	for i := range a {
		if a[i] != b[i] {
			diffs = append(diffs, fmt.Sprintf("%d: %q != %q", i, a[i], b[i]))
			if len(diffs) == 5 {
				diffs = append(diffs, "...")
				break
			}
		}
	}
	return strings.Join(diffs, ", ")
}

// String summarizes the dataset in the same layout as the gctx info
// command.
func (d *Dataset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GCT v%s\nsrc: %s\n", d.Version, d.Src)
	if d.data != nil {
		fmt.Fprintf(&b, "data_df: [%d rows x %d columns]\n", d.data.Rows(), d.data.Cols())
	} else {
		b.WriteString("data_df: None\n")
	}
	for _, m := range []struct {
		name string
		t    *Table
	}{{"row_metadata_df", d.rowMeta}, {"col_metadata_df", d.colMeta}} {
		if m.t != nil {
			fmt.Fprintf(&b, "%s: [%d rows x %d columns]\n", m.name, m.t.Len(), m.t.NumFields())
		} else {
			fmt.Fprintf(&b, "%s: None\n", m.name)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Fingerprint hashes ids, field names, metadata values and matrix values.
// Two datasets with equal content have equal fingerprints; provenance and
// precision are not hashed.
func (d *Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	writeInt := func(n uint64) {
		for i := range buf {
			buf[i] = byte(n >> (8 * i))
		}
		h.Write(buf[:])
	}
	// Length prefixes keep ("ab","c") and ("a","bc") apart.
	writeStr := func(s string) {
		writeInt(uint64(len(s)))
		h.WriteString(s)
	}
	writeTable := func(t *Table) {
		if t == nil {
			writeInt(math.MaxUint64)
			return
		}
		writeInt(uint64(t.Len()))
		for _, id := range t.ids {
			writeStr(id)
		}
		writeInt(uint64(len(t.fields)))
		for j, f := range t.fields {
			writeStr(f)
			for _, v := range t.cols[j] {
				h.Write([]byte{byte(v.kind)})
				writeStr(v.String())
			}
		}
	}
	if d.data != nil {
		writeInt(uint64(d.data.Rows()))
		writeInt(uint64(d.data.Cols()))
		for _, id := range d.data.rids {
			writeStr(id)
		}
		for _, id := range d.data.cids {
			writeStr(id)
		}
		for _, v := range d.data.values {
			if math.IsNaN(v) {
				// Every NaN payload hashes the same.
				v = math.NaN()
			}
			writeInt(math.Float64bits(v))
		}
	} else {
		writeInt(math.MaxUint64)
	}
	writeTable(d.rowMeta)
	writeTable(d.colMeta)
	return h.Sum64()
}
