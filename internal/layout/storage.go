package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var ErrUnsupported = errors.New("unsupported storage layout")

// fetcher fills out with the elements sel selects.
type fetcher interface {
	fetch(sel Selection, out []byte) error
}

// Storage reads one dataset's elements.
type Storage struct {
	class message.LayoutClass
	dims  []uint64
	elem  uint64
	src   fetcher
}

// New builds the reader for a dataset's layout message. fp may be nil.
func New(l *message.DataLayout, space *message.Dataspace, elemSize uint32, fp *message.FilterPipeline, r *binary.Reader) (*Storage, error) {
	if l == nil || space == nil {
		return nil, fmt.Errorf("%w: missing layout or dataspace", ErrUnsupported)
	}
	s := &Storage{class: l.Class, dims: space.Dimensions, elem: uint64(elemSize)}
	if space.IsScalar() {
		s.dims = nil
	}

	total := space.NumElements() * s.elem
	switch l.Class {
	case message.LayoutCompact:
		if uint64(len(l.CompactData)) < total {
			return nil, fmt.Errorf("compact data holds %d bytes, want %d", len(l.CompactData), total)
		}
		s.src = &compact{data: l.CompactData, dims: s.dims, elem: s.elem}
	case message.LayoutContiguous:
		s.src = &contiguous{r: r, addr: l.Address, dims: s.dims, elem: s.elem}
	case message.LayoutChunked:
		c, err := newChunked(l, s.dims, s.elem, fp, r)
		if err != nil {
			return nil, err
		}
		s.src = c
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, l.Class)
	}
	return s, nil
}

// Class, Dims and ElementSize describe what the header declared.
func (s *Storage) Class() message.LayoutClass { return s.class }
func (s *Storage) Dims() []uint64             { return s.dims }
func (s *Storage) ElementSize() uint64        { return s.elem }

// Read returns every element.
func (s *Storage) Read() ([]byte, error) { return s.ReadSelection(All(s.dims)) }

// ReadSlice returns the hyperslab starting at start with count elements
// along each dimension.
func (s *Storage) ReadSlice(start, count []uint64) ([]byte, error) {
	if len(start) != len(count) {
		return nil, fmt.Errorf("%w: start and count differ in rank", ErrInvalidSelection)
	}
	return s.ReadSelection(Hyperslab(start, count))
}

// ReadIndices returns the listed positions along axis, in order, with
// every position of the other dimensions. idx must be strictly ascending.
func (s *Storage) ReadIndices(axis int, idx []uint64) ([]byte, error) {
	if axis < 0 || axis >= len(s.dims) {
		return nil, fmt.Errorf("%w: axis %d of %d-d dataset", ErrInvalidSelection, axis, len(s.dims))
	}
	if idx == nil {
		idx = []uint64{}
	}
	return s.ReadSelection(Fancy(s.dims, axis, idx))
}

// ReadSelection returns the selected elements in row-major order.
func (s *Storage) ReadSelection(sel Selection) ([]byte, error) {
	if err := sel.validate(s.dims); err != nil {
		return nil, err
	}
	out := make([]byte, product(sel.Shape())*s.elem)
	if len(out) == 0 {
		return out, nil
	}
	if err := s.src.fetch(sel, out); err != nil {
		return nil, err
	}
	return out, nil
}

type compact struct {
	data []byte
	dims []uint64
	elem uint64
}

func (c *compact) fetch(sel Selection, out []byte) error {
	return scatter(out, sel, block{data: c.data, origin: make([]uint64, len(c.dims)), shape: c.dims}, c.elem)
}

// maxRead caps the bytes one contiguous read pulls into memory.
const maxRead = 64 << 20

type contiguous struct {
	r    *binary.Reader
	addr uint64
	dims []uint64
	elem uint64
}

// fetch reads the selected outermost rows, one read per run of
// consecutive rows.
func (c *contiguous) fetch(sel Selection, out []byte) error {
	if c.r.IsUndefinedOffset(c.addr) {
		return nil // never written: fill value
	}
	if len(c.dims) == 0 {
		b, err := c.r.At(int64(c.addr)).ReadBytes(int(c.elem))
		if err != nil {
			return err
		}
		copy(out, b)
		return nil
	}

	rowBytes := c.elem * product(c.dims[1:])
	step := max(maxRead/max(rowBytes, 1), 1)
	for _, r := range sel[0].runs(0, c.dims[0]) {
		for done := uint64(0); done < r.n; done += step {
			first := r.src + done
			n := min(step, r.n-done)
			data, err := c.r.At(int64(c.addr + first*rowBytes)).ReadBytes(int(n * rowBytes))
			if err != nil {
				return fmt.Errorf("reading rows %d-%d: %w", first, first+n-1, err)
			}
			origin := make([]uint64, len(c.dims))
			origin[0] = first
			shape := append([]uint64{n}, c.dims[1:]...)
			if err := scatter(out, sel, block{data: data, origin: origin, shape: shape}, c.elem); err != nil {
				return err
			}
		}
	}
	return nil
}
