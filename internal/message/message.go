// Package message decodes and encodes the object header messages a GCTX
// file uses: dataspaces, datatypes, storage layouts, filter pipelines,
// attributes, links and the group bookkeeping messages around them.
package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Type is a header message type number.
type Type uint16

const (
	TypeNIL            Type = 0x00
	TypeDataspace      Type = 0x01
	TypeLinkInfo       Type = 0x02
	TypeDatatype       Type = 0x03
	TypeFillValueOld   Type = 0x04
	TypeFillValue      Type = 0x05
	TypeLink           Type = 0x06
	TypeDataLayout     Type = 0x08
	TypeGroupInfo      Type = 0x0A
	TypeFilterPipeline Type = 0x0B
	TypeAttribute      Type = 0x0C
	TypeModTime        Type = 0x12
	TypeContinuation   Type = 0x10
	TypeSymbolTable    Type = 0x11
	TypeAttributeInfo  Type = 0x15
)

// ErrTruncated is returned when a message body ends early.
var ErrTruncated = errors.New("message truncated")

// Message is a decoded header message.
type Message interface {
	Type() Type
}

// Encoder is a message that can be written into a v2 object header.
type Encoder interface {
	Message
	Encode(cfg binary.Config) ([]byte, error)
}

// Parse decodes one message body. Types this package does not model are
// returned as *Unknown so callers can skip them.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	d := newDecoder(data, cfg)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = decodeDataspace(d)
	case TypeDatatype:
		msg, err = decodeDatatype(d)
	case TypeDataLayout:
		msg, err = decodeLayout(d)
	case TypeFilterPipeline:
		msg, err = decodeFilterPipeline(d)
	case TypeFillValue:
		msg, err = decodeFillValue(d)
	case TypeAttribute:
		msg, err = decodeAttribute(d)
	case TypeLink:
		msg, err = decodeLink(d)
	case TypeLinkInfo:
		msg, err = decodeLinkInfo(d)
	case TypeSymbolTable:
		msg, err = decodeSymbolTable(d)
	case TypeContinuation:
		msg, err = decodeContinuation(d)
	default:
		return &Unknown{typ: typ, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message type 0x%02x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Unknown keeps the raw bytes of a message type that is not decoded.
type Unknown struct {
	typ  Type
	Data []byte
}

// Type reports the raw message type.
func (m *Unknown) Type() Type { return m.typ }

// Continuation points at the next block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

// Type reports TypeContinuation.
func (m *Continuation) Type() Type { return TypeContinuation }

func decodeContinuation(d *decoder) (*Continuation, error) {
	c := &Continuation{Offset: d.offset(), Length: d.length()}
	return c, d.err
}

// SymbolTable points a v1 group at its B-tree and local heap.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

// Type reports TypeSymbolTable.
func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func decodeSymbolTable(d *decoder) (*SymbolTable, error) {
	st := &SymbolTable{BTreeAddress: d.offset(), LocalHeapAddress: d.offset()}
	return st, d.err
}

// Encode writes both addresses.
func (m *SymbolTable) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	e.offset(m.BTreeAddress)
	e.offset(m.LocalHeapAddress)
	return e.bytes(), nil
}

// decoder walks a message body. The first failure sticks; callers check
// d.err once at the end.
type decoder struct {
	buf []byte
	off int
	cfg binary.Config
	err error
}

func newDecoder(buf []byte, cfg binary.Config) *decoder {
	return &decoder{buf: buf, cfg: cfg}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at %d of %d", ErrTruncated, n, d.off, len(d.buf))
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) uint(n int) uint64 {
	b := d.take(n)
	if b == nil {
		return 0
	}
	return binary.DecodeUint(d.cfg.ByteOrder, b)
}

func (d *decoder) u8() uint8      { return uint8(d.uint(1)) }
func (d *decoder) u16() uint16    { return uint16(d.uint(2)) }
func (d *decoder) u32() uint32    { return uint32(d.uint(4)) }
func (d *decoder) offset() uint64 { return d.uint(d.cfg.OffsetSize) }
func (d *decoder) length() uint64 { return d.uint(d.cfg.LengthSize) }
func (d *decoder) skip(n int)     { d.take(n) }
func (d *decoder) remaining() int { return len(d.buf) - d.off }
func (d *decoder) rest() []byte   { return d.take(d.remaining()) }
func (d *decoder) alignTo(n int)  { d.skip((n - d.off%n) % n) }
func (d *decoder) sub(n int) *decoder {
	return newDecoder(d.take(n), d.cfg)
}

// cstring reads an n-byte field holding a NUL-terminated string.
func (d *decoder) cstring(n int) string {
	b := d.take(n)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// undefined is the all-ones address of an n-byte field.
func undefined(n int) uint64 { return ^uint64(0) >> (64 - 8*n) }

// encoder builds a message body.
type encoder struct {
	buf []byte
	cfg binary.Config
}

func newEncoder(cfg binary.Config) *encoder { return &encoder{cfg: cfg} }

func (e *encoder) uint(v uint64, n int) {
	b := make([]byte, n)
	binary.EncodeUint(e.cfg.ByteOrder, b, v)
	e.buf = append(e.buf, b...)
}

func (e *encoder) u8(v uint8)       { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16)     { e.uint(uint64(v), 2) }
func (e *encoder) u32(v uint32)     { e.uint(uint64(v), 4) }
func (e *encoder) offset(v uint64)  { e.uint(v, e.cfg.OffsetSize) }
func (e *encoder) length(v uint64)  { e.uint(v, e.cfg.LengthSize) }
func (e *encoder) raw(b []byte)     { e.buf = append(e.buf, b...) }
func (e *encoder) undefinedOffset() { e.offset(undefined(e.cfg.OffsetSize)) }
func (e *encoder) bytes() []byte    { return e.buf }

// minBytes is the smallest of 1, 2, 4 or 8 bytes that holds v.
func minBytes(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	}
	return 8
}
