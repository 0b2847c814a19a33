package gctoo

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Axis names one side of the matrix.
type Axis uint8

const (
	Rows Axis = iota
	Cols
)

// IDName is the name of the axis's identifier index.
func (a Axis) IDName() string {
	if a == Cols {
		return "cid"
	}
	return "rid"
}

// HeaderName is the name of the axis's field-name index.
func (a Axis) HeaderName() string {
	if a == Cols {
		return "chd"
	}
	return "rhd"
}

// String is "row" or "column", for messages.
func (a Axis) String() string {
	if a == Cols {
		return "column"
	}
	return "row"
}

func (a Axis) other() Axis { return 1 - a }

// FieldWidth is the fixed byte width of encoded metadata values.
const FieldWidth = 50

// Table is the metadata of one axis: ordered ids and, per field, one
// value per id.
type Table struct {
	Axis   Axis
	ids    []string
	fields []string
	cols   [][]Value

	// owned is set once a Dataset holds the table; it then only changes
	// through the Dataset's Set methods.
	owned bool
}

// NewTable returns a table with ids and no fields.
func NewTable(axis Axis, ids []string) *Table {
	return &Table{Axis: axis, ids: slices.Clone(ids)}
}

// AddField appends a field column. It must hold one value per id. A
// table read from a Dataset cannot grow in place; add the field to a
// Clone and hand that to SetRowMeta or SetColMeta.
func (t *Table) AddField(name string, values []Value) error {
	if t.owned {
		return fmt.Errorf("%w: %s metadata belongs to a dataset; add %q to a clone", ErrInvariantViolation, t.Axis, name)
	}
	if len(values) != len(t.ids) {
		return fmt.Errorf("%w: field %q has %d values for %d ids", ErrMalformedDimensions, name, len(values), len(t.ids))
	}
	t.fields = append(t.fields, name)
	t.cols = append(t.cols, slices.Clone(values))
	return nil
}

// IDs returns a copy of the ids, in order.
func (t *Table) IDs() []string { return slices.Clone(t.ids) }

// Fields returns a copy of the field names, in order.
func (t *Table) Fields() []string { return slices.Clone(t.fields) }

// Len is the number of ids.
func (t *Table) Len() int { return len(t.ids) }

// NumFields is the number of fields, not counting the id.
func (t *Table) NumFields() int { return len(t.fields) }

// Column returns the values of the first field called name.
func (t *Table) Column(name string) ([]Value, bool) {
	i := slices.Index(t.fields, name)
	if i < 0 {
		return nil, false
	}
	return slices.Clone(t.cols[i]), true
}

// ColumnAt returns the values of the j-th field.
func (t *Table) ColumnAt(j int) []Value { return slices.Clone(t.cols[j]) }

// At returns the value of field j for the i-th id.
func (t *Table) At(i, j int) Value { return t.cols[j][i] }

// Row returns the field values of the i-th id.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c[i]
	}
	return out
}

// Subset returns the rows at pos, in that order.
func (t *Table) Subset(pos []int) *Table {
	out := &Table{Axis: t.Axis, ids: make([]string, len(pos)), fields: slices.Clone(t.fields), cols: make([][]Value, len(t.cols))}
	for k, p := range pos {
		out.ids[k] = t.ids[p]
	}
	for j, c := range t.cols {
		col := make([]Value, len(pos))
		for k, p := range pos {
			col[k] = c[p]
		}
		out.cols[j] = col
	}
	return out
}

// Without returns a copy of t minus the named fields.
func (t *Table) Without(names ...string) *Table {
	out := &Table{Axis: t.Axis, ids: slices.Clone(t.ids)}
	for j, f := range t.fields {
		if !slices.Contains(names, f) {
			out.fields = append(out.fields, f)
			out.cols = append(out.cols, slices.Clone(t.cols[j]))
		}
	}
	return out
}

// WithIDs returns a copy of t with its ids replaced.
func (t *Table) WithIDs(ids []string) (*Table, error) {
	if len(ids) != len(t.ids) {
		return nil, fmt.Errorf("%w: %d ids for a table of %d", ErrMalformedDimensions, len(ids), len(t.ids))
	}
	out := t.Clone()
	out.ids = slices.Clone(ids)
	return out, nil
}

// Clone returns a deep copy of t that no Dataset owns.
func (t *Table) Clone() *Table {
	out := &Table{Axis: t.Axis, ids: slices.Clone(t.ids), fields: slices.Clone(t.fields), cols: make([][]Value, len(t.cols))}
	for j, c := range t.cols {
		out.cols[j] = slices.Clone(c)
	}
	return out
}

// Equal reports whether both tables hold the same axis, ids, fields and
// values in the same order.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Axis != o.Axis || !slices.Equal(t.ids, o.ids) || !slices.Equal(t.fields, o.fields) {
		return false
	}
	for j := range t.cols {
		if !slices.EqualFunc(t.cols[j], o.cols[j], Value.Equal) {
			return false
		}
	}
	return true
}

// DecodeTable builds a table from fixed-width string columns, one per
// field, aligned with ids.
//
// Values are trimmed of NUL and space padding. A column becomes Int when
// every non-null value parses as an integer, Float when every one parses
// as a number, and String otherwise. Nulls become missing values when
// convertNulls is set and "-666" when it is not.
func DecodeTable(axis Axis, ids, fields []string, raw [][]string, convertNulls bool) (*Table, error) {
	if len(fields) != len(raw) {
		return nil, fmt.Errorf("%w: %d fields but %d columns", ErrMalformedDimensions, len(fields), len(raw))
	}
	t := NewTable(axis, trimAll(ids))
	for j, name := range fields {
		if err := t.AddField(name, decodeColumn(raw[j], convertNulls)); err != nil {
			return nil, fmt.Errorf("%s field %q: %w", axis, name, err)
		}
	}
	return t, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = TrimField(s)
	}
	return out
}

// TrimField strips the padding of one fixed-width value.
func TrimField(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// isNullText recognizes the missing-value spellings, including -666 in
// any numeric form.
func isNullText(s string) bool {
	if s == NullSentinel {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == -666
}

func decodeColumn(raw []string, convertNulls bool) []Value {
	text := trimAll(raw)
	// The column takes the narrowest kind every non-null cell parses as.
	kind := KindInt
	for _, s := range text {
		if isNullText(s) {
			continue
		}
		if kind == KindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			kind = KindString
			break
		}
	}
	// Null cells are the sentinel text when conversion is off.
	null := Missing()
	if !convertNulls {
		null = String(NullSentinel)
	}
	out := make([]Value, len(text))
	for i, s := range text {
		switch {
		case isNullText(s):
			out[i] = null
		case kind == KindInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			out[i] = Int(n)
		case kind == KindFloat:
			f, _ := strconv.ParseFloat(s, 64)
			out[i] = Float(f)
		default:
			out[i] = String(s)
		}
	}
	return out
}

// EncodedTable is the string form of a table: the id array and one
// array per field.
type EncodedTable struct {
	IDs     []string
	Fields  []string
	Columns [][]string
}

// EncodeTable renders t as strings. With reintroduceSentinel, missing
// values are written as "-666"; otherwise they are written empty.
// Values longer than FieldWidth bytes are rejected.
func EncodeTable(t *Table, reintroduceSentinel bool) (*EncodedTable, error) {
	enc := &EncodedTable{IDs: slices.Clone(t.ids), Fields: slices.Clone(t.fields), Columns: make([][]string, len(t.cols))}
	for _, id := range t.ids {
		if len(id) > FieldWidth {
			return nil, fmt.Errorf("%w: %s id %q is longer than %d bytes", ErrMalformedDimensions, t.Axis, id, FieldWidth)
		}
	}
	for j, col := range t.cols {
		out := make([]string, len(col))
		for i, v := range col {
			if reintroduceSentinel {
				v = NormalizeNull(v, ToSentinel)
			}
			s := v.String()
			if len(s) > FieldWidth {
				return nil, fmt.Errorf("%w: %s field %q value %q is longer than %d bytes", ErrMalformedDimensions, t.Axis, t.fields[j], s, FieldWidth)
			}
			out[i] = s
		}
		enc.Columns[j] = out
	}
	return enc, nil
}
