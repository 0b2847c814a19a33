package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// LayoutClass is the raw data storage strategy of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// String names the layout class.
func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndex is the chunk index structure of a version 4 layout.
// Layouts before version 4 always index chunks with a v1 B-tree.
type ChunkIndex uint8

const (
	IndexBTreeV1     ChunkIndex = 0
	IndexSingleChunk ChunkIndex = 1
	IndexImplicit    ChunkIndex = 2
	IndexFixedArray  ChunkIndex = 3
	IndexExtArray    ChunkIndex = 4
	IndexBTreeV2     ChunkIndex = 5
)

// DataLayout says where a dataset's elements live.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact.
	CompactData []byte

	// Contiguous. Size is zero in v1/v2 layouts and must be derived.
	Address uint64
	Size    uint64

	// Chunked. ChunkDims has rank+1 entries; the last is the element size.
	ChunkDims  []uint32
	Index      ChunkIndex
	IndexAddr  uint64
	ChunkFlags uint8

	// Fixed array page size exponent.
	PageBits uint8

	// Single-chunk index with filters.
	SingleChunkSize uint64
	SingleChunkMask uint32
}

// Type reports TypeDataLayout.
func (m *DataLayout) Type() Type { return TypeDataLayout }

func decodeLayout(d *decoder) (*DataLayout, error) {
	l := &DataLayout{Version: d.u8()}
	switch l.Version {
	case 1, 2:
		decodeLayoutV1V2(d, l)
	case 3, 4:
		decodeLayoutV3V4(d, l)
	default:
		if d.err == nil {
			return nil, fmt.Errorf("unsupported layout version %d", l.Version)
		}
	}
	return l, d.err
}

// v1/v2: version, ndims, class, reserved (5), [address], ndims x u32,
// [element size for chunked], [size + data for compact].
func decodeLayoutV1V2(d *decoder, l *DataLayout) {
	ndims := int(d.u8())
	l.Class = LayoutClass(d.u8())
	d.skip(5)
	if l.Class != LayoutCompact {
		l.Address = d.offset()
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = d.u32()
	}
	switch l.Class {
	case LayoutCompact:
		l.CompactData = d.take(int(d.u32()))
	case LayoutChunked:
		l.IndexAddr = l.Address
		l.Address = 0
		l.ChunkDims = append(dims, d.u32())
	}
}

// decodeLayoutV3V4 decodes the class-specific part of a v3 or v4 layout.
func decodeLayoutV3V4(d *decoder, l *DataLayout) {
	l.Class = LayoutClass(d.u8())
	switch l.Class {
	case LayoutCompact:
		l.CompactData = d.take(int(d.u16()))
	case LayoutContiguous:
		l.Address = d.offset()
		l.Size = d.length()
	case LayoutChunked:
		if l.Version == 3 {
			ndims := int(d.u8())
			l.IndexAddr = d.offset()
			l.ChunkDims = make([]uint32, ndims)
			for i := range l.ChunkDims {
				l.ChunkDims[i] = d.u32()
			}
			return
		}
		decodeChunkedV4(d, l)
	default:
		if d.err == nil {
			d.err = fmt.Errorf("unsupported storage class %s", l.Class)
		}
	}
}

// v4 chunked: flags, ndims, dim width, dims, index type, index
// parameters, index address.
func decodeChunkedV4(d *decoder, l *DataLayout) {
	l.ChunkFlags = d.u8()
	ndims := int(d.u8())
	width := int(d.u8())
	l.ChunkDims = make([]uint32, ndims)
	for i := range l.ChunkDims {
		l.ChunkDims[i] = uint32(d.uint(width))
	}
	l.Index = ChunkIndex(d.u8())
	switch l.Index {
	case IndexSingleChunk:
		if l.ChunkFlags&0x02 != 0 {
			l.SingleChunkSize = d.length()
			l.SingleChunkMask = d.u32()
		}
	case IndexImplicit:
	case IndexFixedArray:
		l.PageBits = d.u8()
	case IndexExtArray:
		d.skip(5)
	case IndexBTreeV2:
		d.skip(6)
	default:
		if d.err == nil {
			d.err = fmt.Errorf("unknown chunk index type %d", l.Index)
		}
	}
	l.IndexAddr = d.offset()
}

// Encode writes a v3 layout for compact and contiguous storage and a v4
// layout for chunked storage indexed by a fixed array.
func (m *DataLayout) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	switch m.Class {
	case LayoutCompact:
		e.u8(3)
		e.u8(uint8(LayoutCompact))
		e.u16(uint16(len(m.CompactData)))
		e.raw(m.CompactData)
	case LayoutContiguous:
		e.u8(3)
		e.u8(uint8(LayoutContiguous))
		e.offset(m.Address)
		e.length(m.Size)
	case LayoutChunked:
		if m.Index != IndexFixedArray {
			return nil, fmt.Errorf("encoding chunk index %d is not supported", m.Index)
		}
		var widest uint64
		for _, c := range m.ChunkDims {
			widest = max(widest, uint64(c))
		}
		width := minBytes(widest)
		e.u8(4)
		e.u8(uint8(LayoutChunked))
		e.u8(m.ChunkFlags)
		e.u8(uint8(len(m.ChunkDims)))
		e.u8(uint8(width))
		for _, c := range m.ChunkDims {
			e.uint(uint64(c), width)
		}
		e.u8(uint8(IndexFixedArray))
		e.u8(m.PageBits)
		e.offset(m.IndexAddr)
	default:
		return nil, fmt.Errorf("encoding %s layouts is not supported", m.Class)
	}
	return e.bytes(), nil
}

// NewContiguousLayout describes size bytes stored at addr.
func NewContiguousLayout(addr, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewFixedArrayLayout describes chunked storage indexed by a fixed array
// at indexAddr. chunk holds the per-dimension chunk extent.
func NewFixedArrayLayout(chunk []uint32, elemSize uint32, indexAddr uint64, pageBits uint8) *DataLayout {
	dims := append(append([]uint32(nil), chunk...), elemSize)
	return &DataLayout{
		Version:   4,
		Class:     LayoutChunked,
		ChunkDims: dims,
		Index:     IndexFixedArray,
		IndexAddr: indexAddr,
		PageBits:  pageBits,
	}
}
