package layout

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidSelection = errors.New("invalid selection")

// Dim selects positions along one dimension: either the range
// [Start, Start+Count) or, when Index is non-nil, the listed positions,
// which must be strictly ascending.
type Dim struct {
	Start, Count uint64
	Index        []uint64
}

// Len is the number of selected positions.
func (d Dim) Len() uint64 {
	if d.Index != nil {
		return uint64(len(d.Index))
	}
	return d.Count
}

// Selection has one Dim per dataset dimension.
type Selection []Dim

// All selects every element of a dataset with the given dims.
func All(dims []uint64) Selection {
	sel := make(Selection, len(dims))
	for i, n := range dims {
		sel[i] = Dim{Count: n}
	}
	return sel
}

// Hyperslab selects a contiguous block.
func Hyperslab(start, count []uint64) Selection {
	sel := make(Selection, len(start))
	for i := range start {
		sel[i] = Dim{Start: start[i], Count: count[i]}
	}
	return sel
}

// Fancy selects the listed positions along axis and everything along the
// other dimensions.
func Fancy(dims []uint64, axis int, idx []uint64) Selection {
	sel := All(dims)
	if axis >= 0 && axis < len(sel) {
		sel[axis] = Dim{Index: idx}
	}
	return sel
}

// Shape is the per-dimension length of the selection.
func (s Selection) Shape() []uint64 {
	shape := make([]uint64, len(s))
	for i, d := range s {
		shape[i] = d.Len()
	}
	return shape
}

// validate checks the selection against the dataset shape.
func (s Selection) validate(dims []uint64) error {
	if len(s) != len(dims) {
		return fmt.Errorf("%w: rank %d for %d-d dataset", ErrInvalidSelection, len(s), len(dims))
	}
	for i, d := range s {
		if d.Index == nil {
			if d.Start+d.Count > dims[i] || d.Start+d.Count < d.Start {
				return fmt.Errorf("%w: [%d, +%d) beyond dimension %d of size %d", ErrInvalidSelection, d.Start, d.Count, i, dims[i])
			}
			continue
		}
		for k, p := range d.Index {
			if p >= dims[i] {
				return fmt.Errorf("%w: index %d beyond dimension %d of size %d", ErrInvalidSelection, p, i, dims[i])
			}
			if k > 0 && p <= d.Index[k-1] {
				return fmt.Errorf("%w: indices along dimension %d are not strictly ascending", ErrInvalidSelection, i)
			}
		}
	}
	return nil
}

// run maps n consecutive positions of a source block, starting at src,
// onto the output starting at dst.
type run struct {
	src, dst, n uint64
}

// runs lists the selected positions inside [lo, hi), with src relative to
// lo and dst relative to the selection.
func (d Dim) runs(lo, hi uint64) []run {
	if d.Index == nil {
		from, to := max(lo, d.Start), min(hi, d.Start+d.Count)
		if from >= to {
			return nil
		}
		return []run{{src: from - lo, dst: from - d.Start, n: to - from}}
	}
	var out []run
	k := sort.Search(len(d.Index), func(i int) bool { return d.Index[i] >= lo })
	for ; k < len(d.Index) && d.Index[k] < hi; k++ {
		p := d.Index[k]
		if n := len(out); n > 0 && out[n-1].src+out[n-1].n == p-lo {
			out[n-1].n++
			continue
		}
		out = append(out, run{src: p - lo, dst: uint64(k), n: 1})
	}
	return out
}

// touched lists the chunk grid positions along this dimension that hold
// at least one selected position, for chunks of extent c.
func (d Dim) touched(c uint64) []uint64 {
	if d.Len() == 0 {
		return nil
	}
	if d.Index == nil {
		var out []uint64
		for g := d.Start / c; g <= (d.Start+d.Count-1)/c; g++ {
			out = append(out, g)
		}
		return out
	}
	var out []uint64
	for _, p := range d.Index {
		if g := p / c; len(out) == 0 || out[len(out)-1] != g {
			out = append(out, g)
		}
	}
	return out
}
