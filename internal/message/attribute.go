package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

// Type reports TypeAttribute.
func (m *Attribute) Type() Type { return TypeAttribute }

// Version 1 pads the name, datatype and dataspace to 8 bytes. Version 3
// adds a name encoding byte before the name.
func decodeAttribute(d *decoder) (*Attribute, error) {
	a := &Attribute{Version: d.u8()}
	if a.Version < 1 || a.Version > 3 {
		if d.err != nil {
			return nil, d.err
		}
		return nil, fmt.Errorf("unsupported attribute version %d", a.Version)
	}
	d.skip(1) // reserved
	nameLen := int(d.u16())
	dtLen := int(d.u16())
	dsLen := int(d.u16())
	if a.Version == 3 {
		d.skip(1)
	}

	pad := func() {
		if a.Version == 1 {
			d.alignTo(8)
		}
	}
	a.Name = d.cstring(nameLen)
	pad()
	dtd := d.sub(dtLen)
	pad()
	dsd := d.sub(dsLen)
	pad()
	if d.err != nil {
		return nil, d.err
	}

	// The value is whatever follows the dataspace.
	var err error
	if a.Datatype, err = decodeDatatype(dtd); err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", a.Name, err)
	}
	if a.Dataspace, err = decodeDataspace(dsd); err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", a.Name, err)
	}
	a.Data = d.rest()
	return a, d.err
}

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(cfg binary.Config) ([]byte, error) {
	dt, err := m.Datatype.Encode(cfg)
	if err != nil {
		return nil, err
	}
	ds, err := m.Dataspace.Encode(cfg)
	if err != nil {
		return nil, err
	}
	e := newEncoder(cfg)
	e.u8(3)
	e.u8(0)
	e.u16(uint16(len(m.Name) + 1))
	e.u16(uint16(len(dt)))
	e.u16(uint16(len(ds)))
	e.u8(uint8(CharsetASCII))
	e.raw([]byte(m.Name))
	e.u8(0)
	e.raw(dt)
	e.raw(ds)
	e.raw(m.Data)
	return e.bytes(), nil
}

// NewStringAttribute returns a scalar fixed-length string attribute, the
// shape PyTables and h5py use for "version" and "src".
func NewStringAttribute(name, value string) *Attribute {
	size := max(len(value), 1)
	data := make([]byte, size)
	copy(data, value)
	return &Attribute{
		Version:   3,
		Name:      name,
		Datatype:  NewFixedString(uint32(size), PadNullPad),
		Dataspace: NewScalarDataspace(),
		Data:      data,
	}
}
