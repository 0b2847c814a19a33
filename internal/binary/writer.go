package binary

import (
	"encoding/binary"
	"io"
)

// Writer is the write-side twin of Reader.
type Writer struct {
	dst io.WriterAt
	cfg Config
	pos int64
}

// NewWriter creates a cursor at offset 0.
func NewWriter(dst io.WriterAt, cfg Config) *Writer {
	return &Writer{dst: dst, cfg: cfg}
}

// At returns a new cursor at off.
func (w *Writer) At(off int64) *Writer {
	return &Writer{dst: w.dst, cfg: w.cfg, pos: off}
}

// Pos is the number of bytes written so far. The others report the
// configuration.
func (w *Writer) Pos() int64                  { return w.pos }
func (w *Writer) OffsetSize() int             { return w.cfg.OffsetSize }
func (w *Writer) LengthSize() int             { return w.cfg.LengthSize }
func (w *Writer) ByteOrder() binary.ByteOrder { return w.cfg.ByteOrder }

// WriteBytes writes p at the cursor.
func (w *Writer) WriteBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.dst.WriteAt(p, w.pos)
	w.pos += int64(n)
	return err
}

// Fixed-width integers in the configured byte order.
func (w *Writer) WriteUint8(v uint8) error   { return w.WriteBytes([]byte{v}) }
func (w *Writer) WriteUint16(v uint16) error { return w.WriteUintN(uint64(v), 2) }
func (w *Writer) WriteUint32(v uint32) error { return w.WriteUintN(uint64(v), 4) }
func (w *Writer) WriteUint64(v uint64) error { return w.WriteUintN(v, 8) }

// WriteUintN writes v as an n-byte unsigned integer.
func (w *Writer) WriteUintN(v uint64, n int) error {
	b := make([]byte, n)
	EncodeUint(w.cfg.ByteOrder, b, v)
	return w.WriteBytes(b)
}

// WriteOffset and WriteLength use the superblock field widths.
func (w *Writer) WriteOffset(v uint64) error { return w.WriteUintN(v, w.cfg.OffsetSize) }
// WriteLength writes v using the configured length size.
func (w *Writer) WriteLength(v uint64) error { return w.WriteUintN(v, w.cfg.LengthSize) }

// UndefinedOffset is the all-ones "no address" value for this width.
func (w *Writer) UndefinedOffset() uint64 { return allOnes(w.cfg.OffsetSize) }

// WriteUndefinedOffset writes UndefinedOffset.
func (w *Writer) WriteUndefinedOffset() error { return w.WriteOffset(w.UndefinedOffset()) }

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// WritePadding zero-fills up to the next multiple of n.
func (w *Writer) WritePadding(n int64) error {
	return w.WriteZeros(int(alignUp(w.pos, n) - w.pos))
}

// EncodeUint stores v into b using len(b) bytes.
func EncodeUint(order binary.ByteOrder, b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = uint8(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		for i := range b {
			b[i] = byte(v >> (8 * i))
		}
	}
}

// Buffer is an in-memory io.WriterAt / io.ReaderAt that grows on demand.
// Files are assembled in a Buffer and then persisted in one write.
type Buffer struct {
	buf []byte
}

// WriteAt implements io.WriterAt.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(b.buf) {
		if end > cap(b.buf) {
			grown := make([]byte, end, max(end, 2*cap(b.buf)))
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:end]
		}
	}
	return copy(b.buf[off:], p), nil
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the written contents.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the high-water mark of written bytes.
func (b *Buffer) Len() int { return len(b.buf) }
