package gct

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// maxLine bounds one line of the grid.
const maxLine = 1 << 30

// Read parses the GCT file at path.
func Read(path string, opts ...Option) (*gctoo.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", gctoo.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", gctoo.ErrIOFailure, err)
	}
	defer f.Close()
	return Parse(f, path, opts...)
}

type dims struct {
	rows, cols, rowFields, colFields int
}

// Parse reads a GCT document from r. src becomes the dataset's Src.
func Parse(r io.Reader, src string, opts ...Option) (*gctoo.Dataset, error) {
	o := newOptions(opts)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	// Line 1: "#1.3".
	line, err := next(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: empty file", gctoo.ErrWrongFormat, src)
	}
	if !strings.HasPrefix(line, "#") {
		return nil, fmt.Errorf("%w: %s: first line %q is not a version header", gctoo.ErrWrongFormat, src, clip(line))
	}
	if v := strings.TrimSpace(line[1:]); v != Version {
		return nil, fmt.Errorf("%w: %s: GCT version %q, only %s is supported", gctoo.ErrUnsupportedVersion, src, v, Version)
	}

	// Line 2: rows, columns, row fields, column fields.
	line, err = next(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: missing dimensions line", gctoo.ErrMalformedDimensions, src)
	}
	d, err := parseDims(line)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	// The rest is a rectangular grid; blank lines are tolerated.
	width := 1 + d.rowFields + d.cols
	var grid [][]string
	for {
		line, err := next(sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", gctoo.ErrIOFailure, src, err)
		}
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		if len(cells) != width {
			return nil, fmt.Errorf("%w: %s: grid row %d has %d cells, want %d", gctoo.ErrMalformedDimensions, src, len(grid)+1, len(cells), width)
		}
		grid = append(grid, cells)
	}
	if want := 1 + d.colFields + d.rows; len(grid) != want {
		return nil, fmt.Errorf("%w: %s: grid has %d rows, want %d", gctoo.ErrMalformedDimensions, src, len(grid), want)
	}

	ds, err := assemble(grid, d, o, src)
	if err != nil {
		return nil, err
	}
	if !o.rows.IsEmpty() || !o.cols.IsEmpty() {
		if ds, err = gctoo.Select(ds, o.rows, o.cols); err != nil {
			return nil, err
		}
	}
	nr, nc := ds.Shape()
	level.Info(o.logger).Log("msg", "read gct", "src", src, "rows", nr, "cols", nc)
	return ds, nil
}

// next returns the next line without its line ending, or io.EOF.
func next(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}

// parseDims reads the four counts of the second line.
func parseDims(line string) (dims, error) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) != 4 {
		return dims{}, fmt.Errorf("%w: dimensions line has %d entries, want 4", gctoo.ErrMalformedDimensions, len(fields))
	}
	var n [4]int
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || v < 0 {
			return dims{}, fmt.Errorf("%w: dimension %q is not a count", gctoo.ErrMalformedDimensions, f)
		}
		n[i] = v
	}
	return dims{rows: n[0], cols: n[1], rowFields: n[2], colFields: n[3]}, nil
}

// assemble splits a checked grid into ids, both metadata tables and the
// matrix.
func assemble(grid [][]string, d dims, o options, src string) (*gctoo.Dataset, error) {
	// The first grid row holds the row headers and the column ids.
	top := grid[0]
	rhd := top[1 : 1+d.rowFields]
	cids := trim(top[1+d.rowFields:])
	body := grid[1+d.colFields:]
	rids := make([]string, len(body))
	for i, row := range body {
		rids[i] = gctoo.TrimField(row[0])
	}

	var (
		rowNames []string
		rowRaw   [][]string
	)
	for j, name := range rhd {
		if name == "id" {
			continue
		}
		col := make([]string, len(body))
		for i, row := range body {
			col[i] = o.metaCell(row[1+j])
		}
		rowNames = append(rowNames, name)
		rowRaw = append(rowRaw, col)
	}
	rowMeta, err := gctoo.DecodeTable(gctoo.Rows, rids, rowNames, rowRaw, o.convertNulls)
	if err != nil {
		return nil, err
	}

	// Column metadata is stored transposed, one field per grid row.
	colNames := make([]string, d.colFields)
	colRaw := make([][]string, d.colFields)
	for k, row := range grid[1 : 1+d.colFields] {
		colNames[k] = row[0]
		vals := make([]string, d.cols)
		for j := range vals {
			vals[j] = o.metaCell(row[1+d.rowFields+j])
		}
		colRaw[k] = vals
	}
	colMeta, err := gctoo.DecodeTable(gctoo.Cols, cids, colNames, colRaw, o.convertNulls)
	if err != nil {
		return nil, err
	}

	// Data cells sit right of the row metadata in the body rows.
	values := make([]float64, 0, d.rows*d.cols)
	for i, row := range body {
		for j, cell := range row[1+d.rowFields:] {
			v, err := o.dataCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: data[%q, %q] = %q; add it to the null markers to read it as NaN",
					gctoo.ErrUnconvertibleValue, src, rids[i], cids[j], cell)
			}
			values = append(values, v)
		}
	}
	m, err := gctoo.NewMatrix(rids, cids, values)
	if err != nil {
		return nil, err
	}
	return gctoo.New(m, rowMeta, colMeta, gctoo.WithSrc(src), gctoo.WithVersion(Version))
}

func (o options) isNull(s string) bool { return slices.Contains(o.nullMarkers, s) }

// metaCell rewrites null markers to the sentinel so the table decoder
// applies one null rule.
func (o options) metaCell(s string) string {
	if o.isNull(gctoo.TrimField(s)) {
		return gctoo.NullSentinel
	}
	return s
}

// dataCell parses a matrix cell; null markers read as NaN.
func (o options) dataCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if o.isNull(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func trim(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = gctoo.TrimField(s)
	}
	return out
}

// clip shortens s for error messages.
func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
