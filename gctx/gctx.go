// Package gctx reads and writes GCTX files: HDF5 containers holding a
// float32 matrix at /0/DATA/0/matrix, stored cid × rid, and one string
// dataset per metadata field under /0/META/ROW and /0/META/COL.
package gctx

import (
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
)

// Node paths inside a GCTX file.
const (
	MatrixPath  = "/0/DATA/0/matrix"
	RowMetaPath = "/0/META/ROW"
	ColMetaPath = "/0/META/COL"
	IDField     = "id"

	VersionAttr = "version"
	SrcAttr     = "src"
)

// Extension is appended to output paths that lack it.
const Extension = ".gctx"

// FileName appends Extension to p unless it is already there, in any case.
func FileName(p string) string {
	if strings.EqualFold(filepath.Ext(p), Extension) {
		return p
	}
	return p + Extension
}

// Codec names a chunk compressor.
type Codec string

const (
	CodecNone Codec = "none"
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

// ParseCodec accepts the codec names and "" for none.
func ParseCodec(s string) (Codec, bool) {
	switch c := Codec(strings.ToLower(s)); c {
	case "", CodecNone:
		return CodecNone, true
	case CodecGzip, CodecZstd, CodecLZ4:
		return c, true
	}
	return "", false
}

// Option configures a Reader or a Writer. Options that only concern
// writing are ignored by readers.
type Option func(*options)

type options struct {
	logger  log.Logger
	metrics *Metrics

	version    string
	src        string
	codec      Codec
	level      int
	shuffle    bool
	chunkShape []uint64
}

func newOptions(opts []Option) options {
	o := options{logger: log.NewNopLogger(), codec: CodecNone}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics records reads, writes and errors in m.
func WithMetrics(m *Metrics) Option { return func(o *options) { o.metrics = m } }

// WithVersion sets the version attribute written to the file. Without
// it the dataset's own version is kept when it is a GCTX version, and
// gctoo.DefaultVersion is written otherwise.
func WithVersion(v string) Option { return func(o *options) { o.version = v } }

// WithSrc sets the src attribute. The default is the output path.
func WithSrc(src string) Option { return func(o *options) { o.src = src } }

// WithCompression compresses the matrix with codec at level (0 for the
// codec's default), optionally byte-shuffled first.
func WithCompression(codec Codec, level int, shuffle bool) Option {
	return func(o *options) { o.codec, o.level, o.shuffle = codec, level, shuffle }
}

// WithChunkShape stores the matrix in chunks of rows × cols logical cells.
func WithChunkShape(rows, cols uint64) Option {
	return func(o *options) { o.chunkShape = []uint64{cols, rows} }
}

func isGCTXVersion(v string) bool { return strings.HasPrefix(v, "GCTX") }
