package gctoo

import (
	"fmt"
	"slices"
)

// Selector picks positions along one axis, either by id or by position.
// The zero Selector selects the whole axis.
type Selector struct {
	IDs       []string
	Positions []int
}

// ByIDs selects by identifier.
func ByIDs(ids ...string) Selector { return Selector{IDs: ids} }

// ByPositions selects by zero-based position.
func ByPositions(p ...int) Selector { return Selector{Positions: p} }

// IsEmpty reports a selector that keeps everything.
func (s Selector) IsEmpty() bool    { return len(s.IDs) == 0 && len(s.Positions) == 0 }
func (s Selector) byID() bool       { return len(s.IDs) > 0 }
func (s Selector) byPosition() bool { return len(s.Positions) > 0 }

// Resolve maps sel onto ids and returns the selected positions in
// ascending order, without duplicates. Storage order always wins over the
// order of the request.
func Resolve(ids []string, sel Selector) ([]int, error) {
	if sel.byID() && sel.byPosition() {
		return nil, fmt.Errorf("%w: both ids and positions given", ErrAmbiguousSelector)
	}
	var pos []int
	switch {
	case sel.byID():
		index := make(map[string]int, len(ids))
		for i, id := range ids {
			if _, ok := index[id]; !ok {
				index[id] = i
			}
		}
		pos = make([]int, 0, len(sel.IDs))
		for _, id := range sel.IDs {
			i, ok := index[id]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
			}
			pos = append(pos, i)
		}
	case sel.byPosition():
		pos = slices.Clone(sel.Positions)
		for _, p := range pos {
			if p < 0 || p >= len(ids) {
				return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPositionOutOfRange, p, len(ids))
			}
		}
	default:
		return FullRange(len(ids)), nil
	}
	slices.Sort(pos)
	return slices.Compact(pos), nil
}

// ResolveSelectors resolves both axes at once. Both selectors must use
// the same kind: ids on one axis and positions on the other is an error.
func ResolveSelectors(rowIDs, colIDs []string, rows, cols Selector) (rowPos, colPos []int, err error) {
	if (rows.byID() && cols.byPosition()) || (rows.byPosition() && cols.byID()) {
		if !(rows.byID() && rows.byPosition()) && !(cols.byID() && cols.byPosition()) {
			return nil, nil, fmt.Errorf("%w: ids on one axis and positions on the other", ErrInconsistentSelectorTypes)
		}
	}
	if rowPos, err = Resolve(rowIDs, rows); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	if colPos, err = Resolve(colIDs, cols); err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}
	return rowPos, colPos, nil
}

// FullRange returns 0..n-1.
func FullRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// IsFullRange reports whether pos is exactly 0..n-1.
func IsFullRange(pos []int, n int) bool {
	if len(pos) != n {
		return false
	}
	for i, p := range pos {
		if p != i {
			return false
		}
	}
	return true
}
