package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// LinkType of a link message.
type LinkType uint8

const (
	LinkHard     LinkType = 0
	LinkSoft     LinkType = 1
	LinkExternal LinkType = 64
)

// Link names a child of a v2 group.
type Link struct {
	Version  uint8
	LinkType LinkType
	Name     string

	// Hard links carry the child's object header address.
	Address uint64
	// Soft links carry an absolute or relative path.
	Target string
}

func (m *Link) Type() Type { return TypeLink }

// Layout: version, flags, [type], [creation order (8)], [charset],
// name length (1 << flags&3 bytes), name, link value.
func decodeLink(d *decoder) (*Link, error) {
	l := &Link{Version: d.u8()}
	flags := d.u8()
	if flags&0x08 != 0 {
		l.LinkType = LinkType(d.u8())
	}
	if flags&0x04 != 0 {
		d.skip(8)
	}
	if flags&0x10 != 0 {
		d.skip(1)
	}
	nameLen := int(d.uint(1 << (flags & 0x03)))
	l.Name = string(d.take(nameLen))

	switch l.LinkType {
	case LinkHard:
		l.Address = d.offset()
	case LinkSoft:
		l.Target = string(d.take(int(d.u16())))
	default:
		d.rest()
	}
	return l, d.err
}

// Encode writes a version 1 hard link.
func (m *Link) Encode(cfg binary.Config) ([]byte, error) {
	if m.LinkType != LinkHard {
		return nil, fmt.Errorf("only hard links can be encoded")
	}
	width := minBytes(uint64(len(m.Name)))
	flags := uint8(0)
	switch width {
	case 2:
		flags = 1
	case 4:
		flags = 2
	case 8:
		flags = 3
	}
	e := newEncoder(cfg)
	e.u8(1)
	e.u8(flags)
	e.uint(uint64(len(m.Name)), width)
	e.raw([]byte(m.Name))
	e.offset(m.Address)
	return e.bytes(), nil
}

// NewHardLink links name to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{Version: 1, LinkType: LinkHard, Name: name, Address: addr}
}

// LinkInfo describes how a v2 group stores its links. Compact groups
// keep link messages in the header and have no fractal heap. Dense groups
// keep them in a fractal heap indexed by a v2 B-tree.
type LinkInfo struct {
	Flags            uint8
	MaxCreationIndex uint64
	// HeapAddress and NameIndexAddress are only meaningful when Dense.
	HeapAddress      uint64
	NameIndexAddress uint64
	Dense            bool
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

const (
	linkInfoTrackOrder = 0x01
	linkInfoIndexOrder = 0x02
)

// decodeLinkInfo reads version 0: flags, optional max creation index,
// fractal heap and name index addresses, optional order index address.
func decodeLinkInfo(d *decoder) (*LinkInfo, error) {
	if v := d.u8(); d.err == nil && v != 0 {
		return nil, fmt.Errorf("unsupported link info version %d", v)
	}
	li := &LinkInfo{Flags: d.u8()}
	if li.Flags&linkInfoTrackOrder != 0 {
		li.MaxCreationIndex = d.uint(8)
	}
	li.HeapAddress = d.offset()
	li.NameIndexAddress = d.offset()
	if li.Flags&linkInfoIndexOrder != 0 {
		d.offset()
	}
	li.Dense = li.HeapAddress != undefined(d.cfg.OffsetSize)
	return li, d.err
}

// Encode writes version 0 and no flags. Compact groups get undefined
// fractal heap and name index addresses.
func (m *LinkInfo) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	e.u8(0)
	e.u8(0)
	if m.Dense {
		e.offset(m.HeapAddress)
		e.offset(m.NameIndexAddress)
	} else {
		e.undefinedOffset()
		e.undefinedOffset()
	}
	return e.bytes(), nil
}

// GroupInfo carries the default link storage thresholds.
type GroupInfo struct{}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// Encode writes version 0 with no optional fields.
func (m *GroupInfo) Encode(cfg binary.Config) ([]byte, error) {
	return []byte{0, 0}, nil
}

// FillValue records when storage is allocated and whether a fill value
// is defined. Only the flags are modelled.
type FillValue struct {
	Version   uint8
	AllocTime uint8
	WriteTime uint8
	Defined   bool
}

func (m *FillValue) Type() Type { return TypeFillValue }

func decodeFillValue(d *decoder) (*FillValue, error) {
	fv := &FillValue{Version: d.u8()}
	switch fv.Version {
	case 1, 2:
		fv.AllocTime = d.u8()
		fv.WriteTime = d.u8()
		fv.Defined = d.u8() != 0
	case 3:
		flags := d.u8()
		fv.AllocTime = flags & 0x03
		fv.WriteTime = flags>>2&0x03
		fv.Defined = flags&0x20 != 0
	default:
		if d.err == nil {
			return nil, fmt.Errorf("unsupported fill value version %d", fv.Version)
		}
	}
	d.rest()
	return fv, d.err
}

// Encode writes version 3 with no fill value.
func (m *FillValue) Encode(cfg binary.Config) ([]byte, error) {
	return []byte{3, m.AllocTime&0x03 | (m.WriteTime&0x03)<<2}, nil
}

// Allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// NewFillValue returns a fill value message with "write if set" timing.
func NewFillValue(alloc uint8) *FillValue {
	return &FillValue{Version: 3, AllocTime: alloc, WriteTime: 2}
}
