package alloc

import (
	"cmp"
	"fmt"
	"slices"
)

// Alignment of every region.
const Alignment = 8

// Region is one allocated byte range.
type Region struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Stats summarises the allocations made so far.
type Stats struct {
	Regions uint64
	Bytes   uint64
	Largest uint64
	// Padding counts the bytes skipped to keep regions aligned.
	Padding uint64
}

// Allocator tracks the end of file.
type Allocator struct {
	base    uint64
	eof     uint64
	regions []Region
	stats   Stats
}

// New returns an allocator whose first region starts at base.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes and returns their address. Zero-sized
// requests return the current end of file without recording a region.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	if size == 0 {
		return a.eof
	}
	if rem := a.eof % Alignment; rem != 0 {
		a.stats.Padding += Alignment - rem
		a.eof += Alignment - rem
	}
	addr := a.eof
	a.eof += size
	a.regions = append(a.regions, Region{Addr: addr, Size: size, Tag: tag})
	a.stats.Regions++
	a.stats.Bytes += size
	a.stats.Largest = max(a.stats.Largest, size)
	return addr
}

// EOF is the address just past the last region.
func (a *Allocator) EOF() uint64 { return a.eof }

// Base is the address of the first region.
func (a *Allocator) Base() uint64 { return a.base }

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats { return a.stats }

// Regions returns a copy of the recorded regions in allocation order.
func (a *Allocator) Regions() []Region { return slices.Clone(a.regions) }

// Validate checks that every region lies in [base, eof) and that no two
// regions overlap.
func (a *Allocator) Validate() error {
	sorted := a.Regions()
	slices.SortFunc(sorted, func(x, y Region) int { return cmp.Compare(x.Addr, y.Addr) })
	for i, r := range sorted {
		if r.Addr < a.base || r.Addr+r.Size > a.eof {
			return fmt.Errorf("region %q [0x%x, +%d) outside [0x%x, 0x%x)", r.Tag, r.Addr, r.Size, a.base, a.eof)
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.Addr+prev.Size > r.Addr {
				return fmt.Errorf("regions %q and %q overlap at 0x%x", prev.Tag, r.Tag, r.Addr)
			}
		}
	}
	return nil
}
