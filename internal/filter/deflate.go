package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Deflate is the zlib filter. Level only matters when encoding.
type Deflate struct {
	level int
	limit uint64
}

// NewDeflate clamps level to 1..9.
func NewDeflate(level int) *Deflate { return &Deflate{level: min(max(level, 1), 9)} }

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

func (f *Deflate) limitOutput(n uint64) { f.limit = n }

// Encode compresses in as a zlib stream at the configured level.
func (f *Deflate) Encode(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode inflates in. With a limit set, output past it is corrupt.
func (f *Deflate) Decode(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if f.limit == 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, int64(f.limit)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > f.limit {
		return nil, fmt.Errorf("%w: inflates past %d bytes", ErrCorrupt, f.limit)
	}
	return out, nil
}
