package message

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// SpaceType distinguishes scalar, simple (N-d) and null dataspaces.
type SpaceType uint8

const (
	SpaceScalar SpaceType = 0
	SpaceSimple SpaceType = 1
	SpaceNull   SpaceType = 2
)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Version    uint8
	Space      SpaceType
	Dimensions []uint64
	MaxDims    []uint64
}

// Type reports TypeDataspace.
func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank is the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dimensions) }

// IsScalar reports a single-element dataspace.
func (m *Dataspace) IsScalar() bool { return m.Space == SpaceScalar }

// NumElements is the product of the dimensions.
func (m *Dataspace) NumElements() uint64 {
	switch m.Space {
	case SpaceScalar:
		return 1
	case SpaceNull:
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		n *= d
	}
	return n
}

// Version 1: version, rank, flags, reserved (5), dims, [max dims].
// Version 2: version, rank, flags, type, dims, [max dims].
func decodeDataspace(d *decoder) (*Dataspace, error) {
	ds := &Dataspace{Version: d.u8()}
	rank := int(d.u8())
	flags := d.u8()
	switch ds.Version {
	case 1:
		d.skip(5)
		ds.Space = SpaceSimple
		if rank == 0 {
			ds.Space = SpaceScalar
		}
	case 2:
		ds.Space = SpaceType(d.u8())
	default:
		if d.err == nil {
			return nil, fmt.Errorf("unsupported dataspace version %d", ds.Version)
		}
	}
	if ds.Space != SpaceSimple {
		return ds, d.err
	}

	ds.Dimensions = make([]uint64, rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = d.length()
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = d.length()
		}
	}
	return ds, d.err
}

// Encode writes a version 2 dataspace without maximum dimensions.
func (m *Dataspace) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	e.u8(2)
	e.u8(uint8(len(m.Dimensions)))
	e.u8(0)
	e.u8(uint8(m.Space))
	for _, dim := range m.Dimensions {
		e.length(dim)
	}
	return e.bytes(), nil
}

// NewSimpleDataspace returns an N-d dataspace.
func NewSimpleDataspace(dims ...uint64) *Dataspace {
	return &Dataspace{Version: 2, Space: SpaceSimple, Dimensions: dims}
}

// NewScalarDataspace returns a single-element dataspace.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, Space: SpaceScalar}
}
