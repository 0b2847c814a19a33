package matrixstore

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

// Mode is how a selection is read from storage.
type Mode uint8

const (
	// Empty selects no cells and reads nothing.
	Empty Mode = iota
	// Bulk reads the whole matrix at once.
	Bulk
	// SingleAxis reads one index list along First.
	SingleAxis
	// DualAxis reads First from storage, then picks Second in memory.
	DualAxis
)

// String names the mode in log lines.
func (m Mode) String() string {
	switch m {
	case Bulk:
		return "bulk"
	case SingleAxis:
		return "single-axis"
	case DualAxis:
		return "dual-axis"
	}
	return "empty"
}

// Plan describes the reads for one selection.
type Plan struct {
	Mode   Mode
	First  gctoo.Axis
	Second gctoo.Axis
	// Cells is the number of matrix cells read from storage.
	Cells int
}

// String renders the plan for debug logging.
func (p Plan) String() string {
	switch p.Mode {
	case SingleAxis:
		return fmt.Sprintf("%s(%s)", p.Mode, p.First)
	case DualAxis:
		return fmt.Sprintf("%s(%s then %s)", p.Mode, p.First, p.Second)
	}
	return p.Mode.String()
}

// Plan picks the reads for rowPos × colPos. An axis counts as sliced
// unless its positions cover it exactly. With both axes sliced the one
// with more positions is read first; ties go to rows.
func (s *Store) Plan(rowPos, colPos []int) Plan {
	if len(rowPos) == 0 || len(colPos) == 0 {
		return Plan{Mode: Empty}
	}
	rowSliced := !gctoo.IsFullRange(rowPos, s.nrid)
	colSliced := !gctoo.IsFullRange(colPos, s.ncid)
	switch {
	case !rowSliced && !colSliced:
		return Plan{Mode: Bulk, Cells: s.nrid * s.ncid}
	case rowSliced && !colSliced:
		return Plan{Mode: SingleAxis, First: gctoo.Rows, Second: gctoo.Cols, Cells: len(rowPos) * s.ncid}
	case colSliced && !rowSliced:
		return Plan{Mode: SingleAxis, First: gctoo.Cols, Second: gctoo.Rows, Cells: len(colPos) * s.nrid}
	case len(rowPos) >= len(colPos):
		return Plan{Mode: DualAxis, First: gctoo.Rows, Second: gctoo.Cols, Cells: len(rowPos) * s.ncid}
	default:
		return Plan{Mode: DualAxis, First: gctoo.Cols, Second: gctoo.Rows, Cells: len(colPos) * s.nrid}
	}
}
