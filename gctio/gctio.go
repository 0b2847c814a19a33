// Package gctio picks the GCT or GCTX reader and writer from a file's
// extension.
package gctio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gct"
	"github.com/robert-malhotra/go-gctx/gctoo"
	"github.com/robert-malhotra/go-gctx/gctx"
)

// Format is a file format.
type Format uint8

const (
	GCT Format = iota + 1
	GCTX
)

// String is the file extension without the dot.
func (f Format) String() string {
	switch f {
	case GCT:
		return "gct"
	case GCTX:
		return "gctx"
	}
	return "unknown"
}

// Detect returns the format named by path's extension, ignoring case.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case gct.Extension:
		return GCT, nil
	case gctx.Extension:
		return GCTX, nil
	}
	return 0, fmt.Errorf("%w: %s: extension must be %s or %s", gctoo.ErrWrongFormat, path, gct.Extension, gctx.Extension)
}

// Options apply to whichever format is picked. Fields that do not concern
// a format are ignored by it.
type Options struct {
	Logger  log.Logger
	Metrics *gctx.Metrics

	// ConvertNulls reads "-666" metadata values as missing.
	ConvertNulls bool
	Rows, Cols   gctoo.Selector
	MetadataOnly bool

	// ReintroduceNulls writes missing metadata values as "-666".
	ReintroduceNulls bool
	Codec            gctx.Codec
	Level            int
	Shuffle          bool
	// DimsSuffix names GCT output name_n{cols}x{rows}.gct.
	DimsSuffix bool
	// Precision is the number of data decimals in GCT output; negative
	// keeps every digit.
	Precision int
}

// DefaultOptions reads and writes without changing null values.
func DefaultOptions() Options {
	return Options{ReintroduceNulls: true, Codec: gctx.CodecNone, Precision: -1}
}

func (o Options) logger() log.Logger {
	if o.Logger == nil {
		return log.NewNopLogger()
	}
	return o.Logger
}

func (o Options) gctxOptions() []gctx.Option {
	opts := []gctx.Option{gctx.WithLogger(o.logger()), gctx.WithMetrics(o.Metrics)}
	if o.Codec != "" {
		opts = append(opts, gctx.WithCompression(o.Codec, o.Level, o.Shuffle))
	}
	return opts
}

func (o Options) gctOptions() []gct.Option {
	opts := []gct.Option{gct.WithLogger(o.logger()), gct.WithConvertNulls(o.ConvertNulls), gct.WithRows(o.Rows), gct.WithCols(o.Cols)}
	if o.Precision >= 0 {
		opts = append(opts, gct.WithPrecision(o.Precision))
	}
	return opts
}

// Read loads path with the reader its extension names.
func Read(path string, o Options) (*gctoo.Dataset, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if format == GCTX {
		var ropts []gctx.ReadOption
		if o.MetadataOnly {
			ropts = append(ropts, gctx.MetadataOnly())
		}
		return gctx.NewReader(o.gctxOptions()...).Read(path, o.ConvertNulls, o.Rows, o.Cols, ropts...)
	}
	ds, err := gct.Read(path, o.gctOptions()...)
	if err != nil {
		return nil, err
	}
	if o.MetadataOnly {
		if err := ds.SetData(gctoo.NaNMatrix(ds.RowIDs(), ds.ColIDs())); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Write stores ds with the writer path's extension names and returns the
// path written.
func Write(ds *gctoo.Dataset, path string, o Options) (string, error) {
	format, err := Detect(path)
	if err != nil {
		return "", err
	}
	if format == GCTX {
		return gctx.NewWriter(o.gctxOptions()...).Write(ds, path, o.ReintroduceNulls)
	}
	if o.DimsSuffix {
		path = gct.DimsFilename(path, ds)
	}
	if err := gct.Write(ds, path, o.gctOptions()...); err != nil {
		return "", err
	}
	return path, nil
}

// ReadRowMeta reads the row metadata of path.
func ReadRowMeta(path string, o Options) (*gctoo.Table, error) {
	return readMeta(path, gctoo.Rows, o)
}

// ReadColMeta reads the column metadata of path.
func ReadColMeta(path string, o Options) (*gctoo.Table, error) {
	return readMeta(path, gctoo.Cols, o)
}

// readMeta reads one metadata table without the matrix.
func readMeta(path string, axis gctoo.Axis, o Options) (*gctoo.Table, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if format == GCTX {
		r := gctx.NewReader(o.gctxOptions()...)
		if axis == gctoo.Cols {
			return r.ReadColMeta(path, o.ConvertNulls)
		}
		return r.ReadRowMeta(path, o.ConvertNulls)
	}
	o.Rows, o.Cols = gctoo.Selector{}, gctoo.Selector{}
	ds, err := gct.Read(path, o.gctOptions()...)
	if err != nil {
		return nil, err
	}
	if axis == gctoo.Cols {
		return ds.ColMeta(), nil
	}
	return ds.RowMeta(), nil
}

// Convert rewrites in as out, which may use either format. Metadata is
// read without null conversion, so "-666" values pass through unchanged.
// It returns the path written.
func Convert(in, out string, o Options) (string, error) {
	o.ConvertNulls = false
	o.MetadataOnly = false
	ds, err := Read(in, o)
	if err != nil {
		return "", err
	}
	written, err := Write(ds, out, o)
	if err != nil {
		return "", err
	}
	level.Info(o.logger()).Log("msg", "converted", "in", in, "out", written)
	return written, nil
}
