package layout

import "fmt"

// block is a dense row-major region of a dataset held in memory.
type block struct {
	data   []byte
	origin []uint64
	shape  []uint64
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// strides are the byte strides of a row-major array of shape.
func strides(shape []uint64, elem uint64) []uint64 {
	s := make([]uint64, len(shape))
	acc := elem
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// scatter copies the elements of b that sel selects into out, which has
// the selection's shape.
func scatter(out []byte, sel Selection, b block, elem uint64) error {
	if need := product(b.shape) * elem; uint64(len(b.data)) < need {
		return fmt.Errorf("block holds %d bytes, want %d", len(b.data), need)
	}
	rank := len(sel)
	if rank == 0 {
		copy(out, b.data[:elem])
		return nil
	}
	outShape := sel.Shape()
	runs := make([][]run, rank)
	for d := range sel {
		runs[d] = sel[d].runs(b.origin[d], b.origin[d]+b.shape[d])
		if len(runs[d]) == 0 {
			return nil
		}
	}

	flat := flatten(runs, b.shape, outShape)
	copyRuns(out, b.data, runs, strides(b.shape, elem), strides(outShape, elem), flat, 0, 0, 0)
	return nil
}

// flatten reports, per dimension d, whether every dimension after d is
// copied whole, so that a run along d is one contiguous byte range on
// both sides.
func flatten(runs [][]run, srcShape, dstShape []uint64) []bool {
	rank := len(runs)
	flat := make([]bool, rank)
	flat[rank-1] = true
	for d := rank - 2; d >= 0; d-- {
		e := d + 1
		r := runs[e]
		flat[d] = flat[e] && len(r) == 1 && r[0].src == 0 && r[0].dst == 0 &&
			r[0].n == srcShape[e] && r[0].n == dstShape[e]
	}
	return flat
}

// copyRuns copies the runs of dimension d, recursing until a dimension
// is flat enough for one copy.
func copyRuns(dst, src []byte, runs [][]run, ss, ds []uint64, flat []bool, d int, so, do uint64) {
	for _, r := range runs[d] {
		if flat[d] {
			n := r.n * ss[d]
			copy(dst[do+r.dst*ds[d]:do+r.dst*ds[d]+n], src[so+r.src*ss[d]:])
			continue
		}
		for i := uint64(0); i < r.n; i++ {
			copyRuns(dst, src, runs, ss, ds, flat, d+1, so+(r.src+i)*ss[d], do+(r.dst+i)*ds[d])
		}
	}
}
