// Package export converts datasets to Apache Arrow tables and writes them
// as Parquet.
package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/natefinch/atomic"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// RIDColumn names the row identifier column.
const RIDColumn = "rid"

// Table returns ds as one row per rid: a rid column, the row metadata
// fields when withRowMeta is set, then a float64 column per cid. Missing
// metadata and NaN cells become nulls. The caller releases the table.
func Table(ds *gctoo.Dataset, pool memory.Allocator, withRowMeta bool) (arrow.Table, error) {
	m := ds.Data()
	if m == nil {
		return nil, fmt.Errorf("%w: dataset has no data matrix", gctoo.ErrMalformedDimensions)
	}
	if pool == nil {
		pool = memory.NewGoAllocator()
	}

	var meta *gctoo.Table
	if withRowMeta {
		meta = ds.RowMeta()
	}
	schema, err := schemaFor(m, meta)
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	// Columns follow the schema: rid, row metadata, then one per cid.
	col := 0
	ids := b.Field(col).(*array.StringBuilder)
	ids.AppendValues(m.RowIDs(), nil)
	col++

	if meta != nil {
		for j := range meta.Fields() {
			appendValues(b.Field(col), meta.ColumnAt(j))
			col++
		}
	}
	for c := 0; c < m.Cols(); c++ {
		fb := b.Field(col).(*array.Float64Builder)
		for r := 0; r < m.Rows(); r++ {
			if v := m.At(r, c); math.IsNaN(v) {
				fb.AppendNull()
			} else {
				fb.Append(v)
			}
		}
		col++
	}

	// A single record batch; the table takes its own reference.
	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

// schemaFor builds the table schema. Column names must be unique across
// rid, the row fields and the cids.
func schemaFor(m *gctoo.Matrix, meta *gctoo.Table) (*arrow.Schema, error) {
	seen := map[string]bool{RIDColumn: true}
	fields := []arrow.Field{{Name: RIDColumn, Type: arrow.BinaryTypes.String}}
	add := func(f arrow.Field) error {
		if seen[f.Name] {
			return fmt.Errorf("%w: column %q appears twice", gctoo.ErrInvariantViolation, f.Name)
		}
		seen[f.Name] = true
		fields = append(fields, f)
		return nil
	}
	if meta != nil {
		for j, name := range meta.Fields() {
			if err := add(arrow.Field{Name: name, Type: columnType(meta.ColumnAt(j)), Nullable: true}); err != nil {
				return nil, err
			}
		}
	}
	for _, cid := range m.ColIDs() {
		if err := add(arrow.Field{Name: cid, Type: arrow.PrimitiveTypes.Float64, Nullable: true}); err != nil {
			return nil, err
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

// columnType picks the arrow type shared by every present value, falling
// back to string for mixed columns.
func columnType(vals []gctoo.Value) arrow.DataType {
	kind := gctoo.KindMissing
	for _, v := range vals {
		switch {
		case v.IsMissing():
		case kind == gctoo.KindMissing:
			kind = v.Kind()
		case kind != v.Kind():
			return arrow.BinaryTypes.String
		}
	}
	switch kind {
	case gctoo.KindInt:
		return arrow.PrimitiveTypes.Int64
	case gctoo.KindFloat:
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// appendValues appends one metadata column to the builder its kind chose.
func appendValues(b array.Builder, vals []gctoo.Value) {
	for _, v := range vals {
		if v.IsMissing() {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.Int64Builder:
			fb.Append(v.Int64())
		case *array.Float64Builder:
			fb.Append(v.Float64())
		case *array.StringBuilder:
			if v.Kind() == gctoo.KindString {
				fb.Append(v.Text())
			} else {
				fb.Append(v.String())
			}
		}
	}
}

// Options control WriteParquet.
type Options struct {
	Logger      log.Logger
	Pool        memory.Allocator
	RowMeta     bool
	Compression string // snappy (default), zstd, gzip or none
}

// ParseCompression maps a codec name to its parquet compression type.
func ParseCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	}
	return compress.Codecs.Uncompressed, fmt.Errorf("unknown parquet compression %q", name)
}

// WriteParquet writes ds to path as a single row group. The file is
// replaced atomically.
func WriteParquet(ds *gctoo.Dataset, path string, o Options) error {
	logger := o.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	codec, err := ParseCompression(o.Compression)
	if err != nil {
		return err
	}
	tbl, err := Table(ds, o.Pool, o.RowMeta)
	if err != nil {
		return err
	}
	defer tbl.Release()

	// Encode into memory so the file is replaced atomically.
	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	w, err := pqarrow.NewFileWriter(tbl.Schema(), &buf, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	// One row group holds the whole table.
	if err := w.WriteTable(tbl, max(tbl.NumRows(), 1)); err != nil {
		w.Close()
		return fmt.Errorf("writing parquet table: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	size := buf.Len()
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("%w: %w", gctoo.ErrIOFailure, err)
	}
	level.Info(logger).Log("msg", "wrote parquet", "path", path, "rows", tbl.NumRows(), "columns", tbl.NumCols(), "bytes", size)
	return nil
}
