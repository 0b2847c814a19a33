// Package binary reads and writes the little-endian, variable-width
// integer encoding HDF5 uses for addresses and lengths.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an offset or length width is not 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config carries the widths the superblock declares for file addresses
// ("offsets") and object sizes ("lengths").
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is the layout used before a superblock has been decoded
// and the layout every file written by this module uses.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// Validate checks the configured widths.
func (c Config) Validate() error {
	if !validWidth(c.OffsetSize) || !validWidth(c.LengthSize) {
		return fmt.Errorf("%w: offset=%d length=%d", ErrInvalidSize, c.OffsetSize, c.LengthSize)
	}
	return nil
}

func validWidth(n int) bool {
	return n == 2 || n == 4 || n == 8
}

// Reader is a positioned cursor over an io.ReaderAt. Readers are cheap
// values; At returns an independent cursor sharing the same source.
type Reader struct {
	src io.ReaderAt
	cfg Config
	pos int64
}

// NewReader creates a cursor at offset 0.
func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg}
}

// At returns a new cursor at off.
func (r *Reader) At(off int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: off}
}

// WithSizes returns a cursor at the same position using new widths.
func (r *Reader) WithSizes(offsetSize, lengthSize int) *Reader {
	cfg := r.cfg
	cfg.OffsetSize, cfg.LengthSize = offsetSize, lengthSize
	return &Reader{src: r.src, cfg: cfg, pos: r.pos}
}

// Pos is the current read position. The others report the configuration.
func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) OffsetSize() int             { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int             { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }
func (r *Reader) Config() Config              { return r.cfg }

// Skip moves the cursor forward by n bytes.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align rounds the cursor up to a multiple of n.
func (r *Reader) Align(n int64) { r.pos = alignUp(r.pos, n) }

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, r.pos); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// ReadBytes consumes exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16, ReadUint32 and ReadUint64 use the configured byte order.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

// ReadUint32 reads a 4-byte unsigned integer in the configured byte order.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

// ReadUint64 reads an 8-byte unsigned integer in the configured byte order.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN consumes an n-byte unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(r.cfg.ByteOrder, b), nil
}

// ReadOffset consumes a file address.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.cfg.OffsetSize) }

// ReadLength consumes an object size.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.cfg.LengthSize) }

// IsUndefinedOffset reports whether v is the all-ones "no address" value.
func (r *Reader) IsUndefinedOffset(v uint64) bool { return v == allOnes(r.cfg.OffsetSize) }

// IsUndefinedLength reports whether v is the all-ones "no length" value.
func (r *Reader) IsUndefinedLength(v uint64) bool { return v == allOnes(r.cfg.LengthSize) }

// DecodeUint decodes len(b) bytes as an unsigned integer. Widths other
// than 1, 2, 4 and 8 are read little-endian.
func DecodeUint(order binary.ByteOrder, b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// allOnes is the undefined value of a width-byte field.
func allOnes(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return 1<<(uint(width)*8) - 1
}

// alignUp rounds pos up to a multiple of n.
func alignUp(pos, n int64) int64 {
	if n <= 1 {
		return pos
	}
	if rem := pos % n; rem != 0 {
		return pos + n - rem
	}
	return pos
}
