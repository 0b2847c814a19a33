// Package gct reads and writes GCT v1.3, the tab-delimited text form of
// an annotated matrix.
//
//	#1.3
//	nrows  ncols  nrowfields  ncolfields
//	id     rhd...             cid...
//	chd    (filler)           column metadata
//	rid    row metadata       data
package gct

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// Version is the only text format version read or written.
const Version = "1.3"

// Extension is the file extension of GCT files.
const Extension = ".gct"

// DefaultNullMarkers are the cell values read as missing.
var DefaultNullMarkers = []string{
	"#N/A", "N/A", "NA", "#NA", "NULL", "NaN", "-NaN", "nan", "-nan", "#N/A!", "na", "None", "-666",
}

// Option configures Read or Write.
type Option func(*options)

type options struct {
	logger       log.Logger
	convertNulls bool
	nullMarkers  []string
	rows, cols   gctoo.Selector

	dataNull     string
	metadataNull string
	fillerNull   string
	precision    int
}

func newOptions(opts []Option) options {
	o := options{
		logger:       log.NewNopLogger(),
		convertNulls: true,
		nullMarkers:  DefaultNullMarkers,
		dataNull:     "NaN",
		metadataNull: gctoo.NullSentinel,
		fillerNull:   gctoo.NullSentinel,
		precision:    -1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger for read and write progress.
func WithLogger(l log.Logger) Option { return func(o *options) { o.logger = l } }

// WithConvertNulls controls whether "-666" metadata values become
// missing (the default) or stay "-666".
func WithConvertNulls(convert bool) Option { return func(o *options) { o.convertNulls = convert } }

// WithNullMarkers replaces DefaultNullMarkers.
func WithNullMarkers(markers ...string) Option { return func(o *options) { o.nullMarkers = markers } }

// WithRows and WithCols select a subset while reading.
func WithRows(sel gctoo.Selector) Option { return func(o *options) { o.rows = sel } }

// WithCols restricts a read to the selected columns.
func WithCols(sel gctoo.Selector) Option { return func(o *options) { o.cols = sel } }

// WithDataNull sets the text written for NaN cells. Default "NaN".
func WithDataNull(s string) Option { return func(o *options) { o.dataNull = s } }

// WithMetadataNull sets the text written for missing metadata. Default "-666".
func WithMetadataNull(s string) Option { return func(o *options) { o.metadataNull = s } }

// WithFillerNull sets the text of the unused top-left block. Default "-666".
func WithFillerNull(s string) Option { return func(o *options) { o.fillerNull = s } }

// WithPrecision writes data with n digits after the decimal point. By
// default values use the fewest digits that read back exactly.
func WithPrecision(n int) Option { return func(o *options) { o.precision = n } }

// DimsFilename returns name with its .gct extension replaced by
// "_n{cols}x{rows}.gct".
func DimsFilename(name string, ds *gctoo.Dataset) string {
	rows, cols := ds.Shape()
	return fmt.Sprintf("%s_n%dx%d%s", strings.TrimSuffix(name, Extension), cols, rows, Extension)
}
