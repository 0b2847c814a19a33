// Package matrixstore reads the GCTX data matrix, or a slice of it, from
// a 2-D float dataset stored in physical (cid × rid) orientation.
//
// The storage layer can apply one index list per read. A selection on
// both axes therefore takes two steps: the axis with more selected
// positions is read from storage and the other is picked in memory.
package matrixstore

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// Source is a 2-D float dataset. *hdf5.Dataset implements it.
type Source interface {
	Shape() []uint64
	ReadFloat32() ([]float32, error)
	ReadIndicesFloat32(axis int, idx []uint64) ([]float32, error)
}

// Physical axes of the stored matrix.
const (
	physCols = 0
	physRows = 1
)

// Store reads logical matrices out of a Source.
type Store struct {
	src        Source
	nrid, ncid int
	logger     log.Logger
}

// New checks that src is two-dimensional.
func New(src Source, logger log.Logger) (*Store, error) {
	dims := src.Shape()
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: matrix has rank %d, want 2", gctoo.ErrMalformedDimensions, len(dims))
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Store{src: src, ncid: int(dims[physCols]), nrid: int(dims[physRows]), logger: logger}, nil
}

// Shape is the logical (rows, columns) shape.
func (s *Store) Shape() (int, int) { return s.nrid, s.ncid }

// Read returns the cells at rowPos × colPos as a rids × cids matrix.
// rids and cids are the full id arrays; their lengths must match the
// stored shape. Positions must be ascending and unique, as returned by
// gctoo.Resolve.
func (s *Store) Read(rids, cids []string, rowPos, colPos []int) (*gctoo.Matrix, Plan, error) {
	if len(rids) != s.nrid || len(cids) != s.ncid {
		return nil, Plan{}, fmt.Errorf("%w: matrix is %d x %d (cid x rid) but there are %d cids and %d rids",
			gctoo.ErrMalformedDimensions, s.ncid, s.nrid, len(cids), len(rids))
	}
	plan := s.Plan(rowPos, colPos)
	level.Debug(s.logger).Log("msg", "reading matrix", "plan", plan, "rows", len(rowPos), "cols", len(colPos))

	var (
		p   phys
		err error
	)
	switch plan.Mode {
	case Empty:
		p = phys{rows: len(colPos), cols: len(rowPos)}
	case Bulk:
		p, err = s.bulk()
	case SingleAxis, DualAxis:
		p, err = s.sliced(plan, rowPos, colPos)
	}
	if err != nil {
		return nil, plan, err
	}

	ids := func(all []string, pos []int) []string {
		out := make([]string, len(pos))
		for i, q := range pos {
			out[i] = all[q]
		}
		return out
	}
	m, err := gctoo.NewMatrix32(ids(rids, rowPos), ids(cids, colPos), p.transpose())
	return m, plan, err
}

// bulk reads the whole physical matrix.
func (s *Store) bulk() (phys, error) {
	v, err := s.src.ReadFloat32()
	if err != nil {
		return phys{}, fmt.Errorf("read matrix: %w", err)
	}
	return phys{rows: s.ncid, cols: s.nrid, v: v}, nil
}

// sliced reads along the plan's first axis and, for dual-axis plans,
// picks the second in memory.
func (s *Store) sliced(plan Plan, rowPos, colPos []int) (phys, error) {
	var p phys
	switch plan.First {
	case gctoo.Rows:
		v, err := s.src.ReadIndicesFloat32(physRows, toUint64(rowPos))
		if err != nil {
			return phys{}, fmt.Errorf("read matrix rows: %w", err)
		}
		p = phys{rows: s.ncid, cols: len(rowPos), v: v}
		if plan.Mode == DualAxis {
			p = p.pickRows(colPos)
		}
	case gctoo.Cols:
		v, err := s.src.ReadIndicesFloat32(physCols, toUint64(colPos))
		if err != nil {
			return phys{}, fmt.Errorf("read matrix columns: %w", err)
		}
		p = phys{rows: len(colPos), cols: s.nrid, v: v}
		if plan.Mode == DualAxis {
			p = p.pickCols(rowPos)
		}
	}
	if len(p.v) != p.rows*p.cols {
		return phys{}, fmt.Errorf("%w: read %d values, want %d", gctoo.ErrMalformedDimensions, len(p.v), p.rows*p.cols)
	}
	return p, nil
}

func toUint64(pos []int) []uint64 {
	out := make([]uint64, len(pos))
	for i, p := range pos {
		out[i] = uint64(p)
	}
	return out
}
