package message

import (
	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
	FilterLZ4         uint16 = 32004
	FilterZstd        uint16 = 32015
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// Optional filters may be skipped when they fail on write.
func (f FilterInfo) Optional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline lists the filters applied to every chunk, in the order
// they run on write.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

// Type reports TypeFilterPipeline.
func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// Has reports whether filter id is part of the pipeline.
func (m *FilterPipeline) Has(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func decodeFilterPipeline(d *decoder) (*FilterPipeline, error) {
	fp := &FilterPipeline{Version: d.u8()}
	n := int(d.u8())
	if fp.Version == 1 {
		d.skip(6)
	}
	for i := 0; i < n && d.err == nil; i++ {
		var f FilterInfo
		f.ID = d.u16()
		nameLen := 0
		if fp.Version == 1 || f.ID >= 256 {
			nameLen = int(d.u16())
		}
		f.Flags = d.u16()
		ncd := int(d.u16())
		if nameLen > 0 {
			f.Name = d.cstring(nameLen)
			if fp.Version == 1 {
				d.skip((8 - nameLen%8) % 8)
			}
		}
		f.ClientData = make([]uint32, ncd)
		for j := range f.ClientData {
			f.ClientData[j] = d.u32()
		}
		if fp.Version == 1 && ncd%2 == 1 {
			d.skip(4)
		}
		fp.Filters = append(fp.Filters, f)
	}
	return fp, d.err
}

// Encode writes a version 2 pipeline. Names are only stored for filters
// outside the reserved range, as version 2 requires.
func (m *FilterPipeline) Encode(cfg binary.Config) ([]byte, error) {
	e := newEncoder(cfg)
	e.u8(2)
	e.u8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		e.u16(f.ID)
		if f.ID >= 256 {
			if f.Name == "" {
				e.u16(0)
			} else {
				e.u16(uint16(len(f.Name) + 1))
			}
		}
		e.u16(f.Flags)
		e.u16(uint16(len(f.ClientData)))
		if f.ID >= 256 && f.Name != "" {
			e.raw([]byte(f.Name))
			e.u8(0)
		}
		for _, v := range f.ClientData {
			e.u32(v)
		}
	}
	return e.bytes(), nil
}
