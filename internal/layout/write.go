package layout

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Allocator hands out file space. alloc.Allocator implements it.
type Allocator interface {
	Alloc(size uint64, tag string) uint64
}

// WriteContiguous stores data in one block and returns its layout
// message. Empty data gets an undefined address.
func WriteContiguous(w io.WriterAt, a Allocator, cfg binary.Config, data []byte) (*message.DataLayout, error) {
	if len(data) == 0 {
		return message.NewContiguousLayout(undefined(cfg), 0), nil
	}
	addr := a.Alloc(uint64(len(data)), "contiguous data")
	if _, err := w.WriteAt(data, int64(addr)); err != nil {
		return nil, fmt.Errorf("writing contiguous data: %w", err)
	}
	return message.NewContiguousLayout(addr, uint64(len(data))), nil
}

// WriteChunked splits data, a row-major array of dims, into chunks of
// the given extent, runs each through fp and indexes them with a fixed
// array. Edge chunks are padded with zeros to the full chunk size.
func WriteChunked(w io.WriterAt, a Allocator, cfg binary.Config, data []byte, dims []uint64, chunk []uint32, elem uint32, fp *message.FilterPipeline) (*message.DataLayout, error) {
	rank := len(dims)
	if rank == 0 || len(chunk) != rank {
		return nil, fmt.Errorf("%w: %d chunk dimensions for %d-d data", ErrInvalidSelection, len(chunk), rank)
	}
	cshape := make([]uint64, rank)
	grid := make([]uint64, rank)
	for d := range dims {
		if chunk[d] == 0 {
			return nil, fmt.Errorf("%w: zero chunk extent along dimension %d", ErrInvalidSelection, d)
		}
		cshape[d] = uint64(chunk[d])
		grid[d] = (dims[d] + cshape[d] - 1) / cshape[d]
	}
	if need := product(dims) * uint64(elem); uint64(len(data)) != need {
		return nil, fmt.Errorf("data holds %d bytes, want %d", len(data), need)
	}
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}
	filtered := !pipeline.Empty()
	chunkBytes := product(cshape) * uint64(elem)

	// Chunks go out in row-major grid order, which is the order the fixed array indexes them.
	n := product(grid)
	refs := make([]chunkRef, 0, n)
	ss, cs := strides(dims, uint64(elem)), strides(cshape, uint64(elem))
	coord := make([]uint64, rank)
	runs := make([][]run, rank)
	for g := uint64(0); g < n; g++ {
		rem := g
		for d := rank - 1; d >= 0; d-- {
			coord[d] = rem % grid[d]
			rem /= grid[d]
		}
		for d := range dims {
			origin := coord[d] * cshape[d]
			runs[d] = []run{{src: origin, n: min(cshape[d], dims[d]-origin)}}
		}
		// Gather the chunk's slab; cells past the dataset edge stay zero.
		buf := make([]byte, chunkBytes)
		copyRuns(buf, data, runs, ss, cs, flatten(runs, dims, cshape), 0, 0, 0)

		if filtered {
			if buf, err = pipeline.Encode(buf); err != nil {
				return nil, fmt.Errorf("chunk %v: %w", coord, err)
			}
		}
		addr := a.Alloc(uint64(len(buf)), "chunk")
		if _, err := w.WriteAt(buf, int64(addr)); err != nil {
			return nil, fmt.Errorf("chunk %v: %w", coord, err)
		}
		refs = append(refs, chunkRef{addr: addr, size: uint64(len(buf))})
	}

	idx, pageBits, err := writeFixedArray(w, a, cfg, refs, filtered, chunkBytes)
	if err != nil {
		return nil, fmt.Errorf("writing chunk index: %w", err)
	}
	return message.NewFixedArrayLayout(chunk, elem, idx, pageBits), nil
}

func undefined(cfg binary.Config) uint64 { return allOnes(cfg.OffsetSize) }
