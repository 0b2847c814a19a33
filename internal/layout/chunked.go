package layout

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/btree"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// chunkRef locates one stored chunk.
type chunkRef struct {
	addr uint64
	size uint64
	mask uint32
}

// chunkIndex finds a chunk by its row-major position in the chunk grid.
type chunkIndex interface {
	lookup(linear uint64) (chunkRef, bool)
}

// mapIndex holds sparse indexes: B-tree v1 and single chunk.
type mapIndex map[uint64]chunkRef

func (m mapIndex) lookup(g uint64) (chunkRef, bool) {
	ref, ok := m[g]
	return ref, ok
}

// arrayIndex is dense; entries with a zero size were never written.
type arrayIndex []chunkRef

func (a arrayIndex) lookup(g uint64) (chunkRef, bool) {
	if g >= uint64(len(a)) || a[g].size == 0 {
		return chunkRef{}, false
	}
	return a[g], true
}

// implicitIndex stores every chunk back to back, unfiltered.
type implicitIndex struct {
	base, size, n uint64
}

func (x implicitIndex) lookup(g uint64) (chunkRef, bool) {
	if g >= x.n {
		return chunkRef{}, false
	}
	return chunkRef{addr: x.base + g*x.size, size: x.size}, true
}

// chunked reads datasets stored as a grid of equally shaped chunks.
// Edge chunks are stored at full size and clipped when copied.
type chunked struct {
	r          *binary.Reader
	l          *message.DataLayout
	dims       []uint64
	chunk      []uint64
	grid       []uint64
	elem       uint64
	chunkBytes uint64
	pipeline   *filter.Pipeline

	// The index is read on first use and shared by later reads.
	once  sync.Once
	index chunkIndex
	err   error
}

// newChunked checks the layout against the dataspace. The layout carries
// one extra chunk dimension, the element size, which is ignored.
func newChunked(l *message.DataLayout, dims []uint64, elem uint64, fp *message.FilterPipeline, r *binary.Reader) (*chunked, error) {
	rank := len(dims)
	if len(l.ChunkDims) != rank+1 {
		return nil, fmt.Errorf("%w: %d chunk dimensions for %d-d dataset", ErrUnsupported, len(l.ChunkDims), rank)
	}
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}
	c := &chunked{r: r, l: l, dims: dims, elem: elem, pipeline: pipeline,
		chunk: make([]uint64, rank), grid: make([]uint64, rank)}
	c.chunkBytes = elem
	for d := range dims {
		c.chunk[d] = uint64(l.ChunkDims[d])
		if c.chunk[d] == 0 {
			return nil, fmt.Errorf("%w: zero chunk extent along dimension %d", ErrUnsupported, d)
		}
		c.grid[d] = (dims[d] + c.chunk[d] - 1) / c.chunk[d]
		c.chunkBytes *= c.chunk[d]
	}
	pipeline.Limit(c.chunkBytes)
	return c, nil
}

func (c *chunked) nchunks() uint64 { return product(c.grid) }

// linear numbers chunk coordinates row-major over the grid.
func (c *chunked) linear(coord []uint64) uint64 {
	var g uint64
	for d, x := range coord {
		g = g*c.grid[d] + x
	}
	return g
}

// loadIndex reads the chunk index once and caches it, error included.
func (c *chunked) loadIndex() (chunkIndex, error) {
	c.once.Do(func() {
		c.index, c.err = c.readIndex()
		if c.err != nil {
			c.err = fmt.Errorf("reading %s chunk index: %w", c.indexName(), c.err)
		}
	})
	return c.index, c.err
}

// indexName names the index type for error messages.
func (c *chunked) indexName() string {
	switch c.l.Index {
	case message.IndexBTreeV1:
		return "B-tree"
	case message.IndexSingleChunk:
		return "single"
	case message.IndexImplicit:
		return "implicit"
	case message.IndexFixedArray:
		return "fixed array"
	case message.IndexExtArray:
		return "extensible array"
	}
	return "v2 B-tree"
}

// readIndex dispatches on the index type recorded in the layout.
func (c *chunked) readIndex() (chunkIndex, error) {
	// No chunk has been written yet.
	if c.r.IsUndefinedOffset(c.l.IndexAddr) {
		return mapIndex{}, nil
	}
	switch c.l.Index {
	case message.IndexBTreeV1:
		chunks, err := btree.ReadChunks(c.r, c.l.IndexAddr, len(c.dims))
		if err != nil {
			return nil, err
		}
		idx := make(mapIndex, len(chunks))
		// B-tree keys carry element offsets; convert them to grid
		// coordinates.
		coord := make([]uint64, len(c.dims))
		for _, ch := range chunks {
			for d, off := range ch.Offset {
				coord[d] = off / c.chunk[d]
			}
			idx[c.linear(coord)] = chunkRef{addr: ch.Address, size: uint64(ch.Size), mask: ch.FilterMask}
		}
		return idx, nil
	case message.IndexSingleChunk:
		// The index address is the chunk itself. Filtered single chunks
		// record their stored size and mask in the layout.
		ref := chunkRef{addr: c.l.IndexAddr, size: c.chunkBytes}
		if c.l.ChunkFlags&0x02 != 0 {
			ref.size, ref.mask = c.l.SingleChunkSize, c.l.SingleChunkMask
		}
		return mapIndex{0: ref}, nil
	case message.IndexImplicit:
		return implicitIndex{base: c.l.IndexAddr, size: c.chunkBytes, n: c.nchunks()}, nil
	case message.IndexFixedArray:
		return readFixedArray(c.r, c.l.IndexAddr, c.chunkBytes)
	}
	// Extensible arrays and v2 B-trees index datasets with unlimited
	// dimensions.
	return nil, ErrUnsupported
}

// fetch visits every chunk the selection touches.
func (c *chunked) fetch(sel Selection, out []byte) error {
	idx, err := c.loadIndex()
	if err != nil {
		return err
	}
	rank := len(c.dims)
	// Per dimension, the grid coordinates of the chunks the selection
	// reaches. Their cross product is the set of chunks to read.
	touched := make([][]uint64, rank)
	for d := range sel {
		touched[d] = sel[d].touched(c.chunk[d])
	}

	coord := make([]uint64, rank)
	var visit func(d int) error
	visit = func(d int) error {
		if d == rank {
			return c.copyChunk(idx, coord, sel, out)
		}
		for _, g := range touched[d] {
			coord[d] = g
			if err := visit(d + 1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(0)
}

// copyChunk reads, unfilters and scatters one chunk into out.
func (c *chunked) copyChunk(idx chunkIndex, coord []uint64, sel Selection, out []byte) error {
	ref, ok := idx.lookup(c.linear(coord))
	if !ok {
		return nil // unallocated chunks read as the fill value
	}
	data, err := c.r.At(int64(ref.addr)).ReadBytes(int(ref.size))
	if err != nil {
		return fmt.Errorf("chunk %v: %w", coord, err)
	}
	if !c.pipeline.Empty() {
		if data, err = c.pipeline.Decode(data, ref.mask); err != nil {
			return fmt.Errorf("chunk %v: %w", coord, err)
		}
	}
	// Place the chunk at its element origin and let scatter clip it to
	// the selection.
	origin := make([]uint64, len(coord))
	for d, g := range coord {
		origin[d] = g * c.chunk[d]
	}
	if err := scatter(out, sel, block{data: data, origin: origin, shape: c.chunk}, c.elem); err != nil {
		return fmt.Errorf("chunk %v: %w", coord, err)
	}
	return nil
}
