package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixedPoint Class = 0
	ClassFloatPoint Class = 1
	ClassTime       Class = 2
	ClassString     Class = 3
	ClassBitfield   Class = 4
	ClassOpaque     Class = 5
	ClassCompound   Class = 6
	ClassReference  Class = 7
	ClassEnum       Class = 8
	ClassVarLen     Class = 9
	ClassArray      Class = 10
)

// String names the datatype class.
func (c Class) String() string {
	names := [...]string{"integer", "float", "time", "string", "bitfield", "opaque",
		"compound", "reference", "enum", "vlen", "array"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of a numeric datatype.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding says how a fixed-length string fills unused bytes.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// Charset of a string datatype.
type Charset uint8

const (
	CharsetASCII Charset = 0
	CharsetUTF8  Charset = 1
)

// Datatype describes the element type of a dataset or attribute.
// Only the classes a GCTX file can contain are fully decoded; other
// classes keep their raw property bytes.
type Datatype struct {
	Version   uint8
	Class     Class
	ClassBits uint32
	Size      uint32

	ByteOrder    ByteOrder
	Signed       bool
	BitOffset    uint16
	BitPrecision uint16

	Charset Charset
	Pad     StringPadding

	// VarLenString is set for variable-length strings, whose elements
	// are global heap references.
	VarLenString bool
	Base         *Datatype

	Properties []byte
}

// Type reports TypeDatatype.
func (m *Datatype) Type() Type { return TypeDatatype }

// IsString reports whether elements decode to Go strings.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.VarLenString)
}

// String describes the type, e.g. "float32" or "string(13)".
func (m *Datatype) String() string {
	switch {
	case m.Class == ClassVarLen && m.VarLenString:
		return "vlen string"
	case m.Class == ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	case m.Class == ClassFixedPoint && m.Signed:
		return fmt.Sprintf("int%d", m.Size*8)
	case m.Class == ClassFixedPoint:
		return fmt.Sprintf("uint%d", m.Size*8)
	case m.Class == ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	}
	return m.Class.String()
}

func decodeDatatype(d *decoder) (*Datatype, error) {
	// Class and version share a byte, then 24 class bit-field bits and the size.
	head := d.u8()
	bits := d.uint(3)
	dt := &Datatype{
		Version:   head >> 4,
		Class:     Class(head & 0x0F),
		ClassBits: uint32(bits),
		Size:      d.u32(),
	}
	if d.err != nil {
		return nil, d.err
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
		dt.BitOffset = d.u16()
		dt.BitPrecision = d.u16()
	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = true
		// Bit offset and precision, exponent and mantissa layout, exponent bias.
		dt.Properties = d.take(12)
		if dt.Properties != nil {
			dt.BitOffset = uint16(binary.DecodeUint(d.cfg.ByteOrder, dt.Properties[0:2]))
			dt.BitPrecision = uint16(binary.DecodeUint(d.cfg.ByteOrder, dt.Properties[2:4]))
		}
	case ClassString:
		dt.Pad = StringPadding(bits & 0x0F)
		dt.Charset = Charset(bits>>4&0x0F)
	case ClassVarLen:
		dt.VarLenString = bits&0x0F == 1
		dt.Pad = StringPadding(bits>>4&0x0F)
		dt.Charset = Charset(bits>>8&0x0F)
		base, err := decodeDatatype(d)
		if err != nil {
			return nil, fmt.Errorf("vlen base type: %w", err)
		}
		dt.Base = base
	default:
		// Classes the readers never convert keep their raw properties.
		dt.Properties = d.rest()
	}
	return dt, d.err
}

// Encode writes a version 1 datatype message.
func (m *Datatype) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	if err := m.encodeInto(e); err != nil {
		return nil, err
	}
	return e.bytes(), nil
}

func (m *Datatype) encodeInto(e *encoder) error {
	bits := m.ClassBits
	switch m.Class {
	case ClassFixedPoint:
		bits = uint32(m.ByteOrder)
		if m.Signed {
			bits |= 0x08
		}
	case ClassFloatPoint:
		if bits == 0 {
			// Implied mantissa normalization; sign bit is the top bit.
			bits = uint32(m.ByteOrder) | 0x20 | (m.Size*8-1)<<8
		}
	case ClassString:
		bits = uint32(m.Pad) | uint32(m.Charset)<<4
	case ClassVarLen:
		if !m.VarLenString || m.Base == nil {
			return fmt.Errorf("only variable-length strings can be encoded")
		}
		bits = 1 | uint32(m.Pad)<<4 | uint32(m.Charset)<<8
	default:
		return fmt.Errorf("encoding %s datatypes is not supported", m.Class)
	}

	// version 1
	e.u8(uint8(m.Class) | 1<<4)
	e.uint(uint64(bits), 3)
	e.u32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		e.u16(m.BitOffset)
		e.u16(m.BitPrecision)
	case ClassFloatPoint:
		props := m.Properties
		if len(props) != 12 {
			var err error
			if props, err = ieeeProperties(m.Size); err != nil {
				return err
			}
		}
		e.raw(props)
	case ClassVarLen:
		return m.Base.encodeInto(e)
	}
	return nil
}

// ieeeProperties is the bit layout block of an IEEE 754 float.
func ieeeProperties(size uint32) ([]byte, error) {
	switch size {
	case 4:
		return []byte{0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0}, nil
	case 8:
		return []byte{0, 0, 64, 0, 52, 11, 0, 52, 0xFF, 0x03, 0, 0}, nil
	}
	return nil, fmt.Errorf("no IEEE layout for %d-byte floats", size)
}

// NewFloat returns a little-endian IEEE float datatype of 4 or 8 bytes.
func NewFloat(size uint32) *Datatype {
	return &Datatype{Class: ClassFloatPoint, Size: size, Signed: true, BitPrecision: uint16(size * 8)}
}

// NewInteger returns a little-endian integer datatype.
func NewInteger(size uint32, signed bool) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Size: size, Signed: signed, BitPrecision: uint16(size * 8)}
}

// NewFixedString returns a fixed-length ASCII string datatype.
func NewFixedString(size uint32, pad StringPadding) *Datatype {
	return &Datatype{Class: ClassString, Size: size, Pad: pad}
}

// NewVarLenString returns a variable-length UTF-8 string datatype.
func NewVarLenString() *Datatype {
	return &Datatype{
		Class:        ClassVarLen,
		Size:         16,
		VarLenString: true,
		Charset:      CharsetUTF8,
		Base:         &Datatype{Class: ClassFixedPoint, Size: 1, BitPrecision: 8},
	}
}
