package gctoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name string
		sel  Selector
		want []int
	}{
		{"all", Selector{}, []int{0, 1, 2, 3, 4}},
		{"ids reordered", ByIDs("d", "a", "c"), []int{0, 2, 3}},
		{"ids duplicated", ByIDs("b", "b", "a"), []int{0, 1}},
		{"positions", ByPositions(4, 1), []int{1, 4}},
		{"positions duplicated", ByPositions(3, 3, 3), []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ids, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1], got[i])
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	ids := []string{"a", "b"}
	_, err := Resolve(ids, Selector{IDs: []string{"a"}, Positions: []int{0}})
	assert.ErrorIs(t, err, ErrAmbiguousSelector)
	_, err = Resolve(ids, ByIDs("a", "zz"))
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	assert.ErrorContains(t, err, `"zz"`)
	_, err = Resolve(ids, ByPositions(2))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = Resolve(ids, ByPositions(-1))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestResolveSelectors(t *testing.T) {
	rids := []string{"r0", "r1", "r2"}
	cids := []string{"c0", "c1"}

	rows, cols, err := ResolveSelectors(rids, cids, ByIDs("r2", "r0"), ByIDs("c1"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, rows)
	assert.Equal(t, []int{1}, cols)

	rows, cols, err = ResolveSelectors(rids, cids, ByPositions(1), Selector{})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, rows)
	assert.Equal(t, []int{0, 1}, cols)

	_, _, err = ResolveSelectors(rids, cids, ByIDs("r0"), ByPositions(0))
	assert.ErrorIs(t, err, ErrInconsistentSelectorTypes)
	_, _, err = ResolveSelectors(rids, cids, ByPositions(0), ByIDs("c0"))
	assert.ErrorIs(t, err, ErrInconsistentSelectorTypes)
	_, _, err = ResolveSelectors(rids, cids, Selector{IDs: []string{"r0"}, Positions: []int{1}}, ByPositions(0))
	assert.ErrorIs(t, err, ErrAmbiguousSelector)
	_, _, err = ResolveSelectors(rids, cids, Selector{}, ByIDs("nope"))
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestIsFullRange(t *testing.T) {
	assert.True(t, IsFullRange([]int{0, 1, 2}, 3))
	assert.True(t, IsFullRange(nil, 0))
	assert.False(t, IsFullRange([]int{0, 2}, 3))
	assert.False(t, IsFullRange([]int{0, 2}, 2))
}
