package gct

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/natefinch/atomic"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// Write stores ds at path atomically.
func Write(ds *gctoo.Dataset, path string, opts ...Option) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ds, opts...); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("%w: writing %s: %w", gctoo.ErrIOFailure, path, err)
	}
	nr, nc := ds.Shape()
	level.Info(newOptions(opts).logger).Log("msg", "wrote gct", "path", path, "rows", nr, "cols", nc)
	return nil
}

// Encode writes ds as a GCT document. A dataset without metadata tables
// is written with no metadata fields.
func Encode(w io.Writer, ds *gctoo.Dataset, opts ...Option) error {
	o := newOptions(opts)
	m := ds.Data()
	if m == nil {
		return fmt.Errorf("%w: dataset has no data matrix", gctoo.ErrMalformedDimensions)
	}
	row, col := ds.RowMeta(), ds.ColMeta()
	if row == nil {
		row = gctoo.NewTable(gctoo.Rows, m.RowIDs())
	}
	if col == nil {
		col = gctoo.NewTable(gctoo.Cols, m.ColIDs())
	}
	// Check everything before the first byte goes out.
	if err := checkText(o, row, col); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#%s\n%d\t%d\t%d\t%d\n", Version, m.Rows(), m.Cols(), row.NumFields(), col.NumFields())

	cells := make([]string, 0, 1+row.NumFields()+m.Cols())
	flush := func() {
		for i, c := range cells {
			if i > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(c)
		}
		bw.WriteByte('\n')
		cells = cells[:0]
	}

	// Header row: "id", the row field names, then the column ids.
	cells = append(cells, "id")
	cells = append(cells, row.Fields()...)
	cells = append(cells, m.ColIDs()...)
	flush()

	// One row per column field, padded under the row field headers.
	for k, name := range col.Fields() {
		cells = append(cells, name)
		for range row.NumFields() {
			cells = append(cells, o.fillerNull)
		}
		for _, v := range col.ColumnAt(k) {
			cells = append(cells, o.metaText(v))
		}
		flush()
	}

	// Format at the width the values were read at, so float32 data does not grow digits.
	bits := 64
	if m.IsFloat32() {
		bits = 32
	}
	for i, rid := range m.RowIDs() {
		cells = append(cells, rid)
		for _, v := range row.Row(i) {
			cells = append(cells, o.metaText(v))
		}
		for _, v := range m.Row(i) {
			cells = append(cells, o.dataText(v, bits))
		}
		flush()
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", gctoo.ErrIOFailure, err)
	}
	return nil
}

// separators cannot appear inside a GCT cell.
const separators = "\t\r\n"

func checkCell(what, s string) error {
	if strings.ContainsAny(s, separators) {
		return fmt.Errorf("%w: %s %q contains a tab or line break", gctoo.ErrUnconvertibleValue, what, s)
	}
	return nil
}

// checkText rejects cells that would break the tab-separated layout. The
// tables carry the same ids as the matrix.
func checkText(o options, row, col *gctoo.Table) error {
	for _, c := range [][2]string{{"data null", o.dataNull}, {"metadata null", o.metadataNull}, {"filler null", o.fillerNull}} {
		if err := checkCell(c[0], c[1]); err != nil {
			return err
		}
	}
	for _, t := range []*gctoo.Table{row, col} {
		axis := t.Axis.String()
		for _, id := range t.IDs() {
			if err := checkCell(axis+" id", id); err != nil {
				return err
			}
		}
		for j, f := range t.Fields() {
			if err := checkCell(axis+" field", f); err != nil {
				return err
			}
			for _, v := range t.ColumnAt(j) {
				if v.IsMissing() {
					continue
				}
				if err := checkCell(fmt.Sprintf("%s field %s value", axis, f), v.String()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// metaText renders a metadata cell; missing values use the metadata null.
func (o options) metaText(v gctoo.Value) string {
	if v.IsMissing() {
		return o.metadataNull
	}
	return v.String()
}

// dataText renders a matrix cell at the configured precision.
func (o options) dataText(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return o.dataNull
	case o.precision >= 0:
		return strconv.FormatFloat(v, 'f', o.precision, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}
