package gctoo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSingleRow(t *testing.T) {
	d := sample(t)
	sub, err := Select(d, ByIDs("218597_s_at"), Selector{})
	require.NoError(t, err)
	r, c := sub.Shape()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, d.Data().Row(1), sub.Data().Row(0))
	assert.Equal(t, []Value{String("ATP5D"), Int(0)}, sub.RowMeta().Row(0))
	assert.True(t, d.ColMeta().Equal(sub.ColMeta()))
}

func TestSelectMatchesFullRead(t *testing.T) {
	d := sample(t)
	for _, sel := range []struct{ rows, cols Selector }{
		{ByPositions(1, 0), ByPositions(2)},
		{ByIDs("200814_at"), ByIDs("s3", "s1")},
		{Selector{}, ByPositions(1)},
	} {
		rowPos, colPos, err := ResolveSelectors(d.RowIDs(), d.ColIDs(), sel.rows, sel.cols)
		require.NoError(t, err)
		sub, err := Select(d, sel.rows, sel.cols)
		require.NoError(t, err)
		r, c := sub.Shape()
		require.Equal(t, len(rowPos), r)
		require.Equal(t, len(colPos), c)
		for i, p := range rowPos {
			for j, q := range colPos {
				assert.Equal(t, d.Data().At(p, q), sub.Data().At(i, j))
			}
		}
	}
}

func TestSubsetErrors(t *testing.T) {
	d := sample(t)
	_, err := Subset(d, []int{2}, nil)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	_, err = Select(d, ByIDs("x"), Selector{})
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestSliceMask(t *testing.T) {
	d := sample(t)
	sub, err := SliceMask(d, nil, []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, sub.ColIDs())
	assert.Equal(t, d.RowIDs(), sub.RowIDs())

	sub, err = SliceMask(d, []bool{false, false}, nil)
	require.NoError(t, err)
	r, _ := sub.Shape()
	assert.Zero(t, r)

	_, err = SliceMask(d, []bool{true}, nil)
	assert.ErrorIs(t, err, ErrMalformedDimensions)
}

func TestTranspose(t *testing.T) {
	d := sample(t)
	tr, err := Transpose(d)
	require.NoError(t, err)
	assert.Equal(t, d.ColIDs(), tr.RowIDs())
	assert.Equal(t, Rows, tr.RowMeta().Axis)
	assert.Equal(t, []string{"pert_iname", "pert_dose"}, tr.RowMeta().Fields())
	back, err := Transpose(tr)
	require.NoError(t, err)
	assert.Equal(t, d.Fingerprint(), back.Fingerprint())
}

// part builds a dataset with one row field and one column field.
func part(t *testing.T, rids, cids []string, values []float64, genes ...string) *Dataset {
	t.Helper()
	m, err := NewMatrix(rids, cids, values)
	require.NoError(t, err)
	row := NewTable(Rows, rids)
	gv := make([]Value, len(genes))
	for i, g := range genes {
		gv[i] = String(g)
	}
	require.NoError(t, row.AddField("gene", gv))
	require.NoError(t, row.AddField("batch", make([]Value, len(rids))))
	col := NewTable(Cols, cids)
	require.NoError(t, col.AddField("cell", make([]Value, len(cids))))
	d, err := New(m, row, col)
	require.NoError(t, err)
	return d
}

func TestHStack(t *testing.T) {
	a := part(t, []string{"r2", "r1"}, []string{"a1", "a2"}, []float64{1, 2, 3, 4}, "G2", "G1")
	b := part(t, []string{"r3", "r1"}, []string{"b1"}, []float64{5, 6}, "G3", "G1")

	out, err := HStack([]*Dataset{a, b}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, out.RowIDs())
	assert.Equal(t, []string{"a1", "a2", "b1"}, out.ColIDs())
	assert.Equal(t, []Value{String("G1"), Missing()}, out.RowMeta().Row(0))

	want := []float64{3, 4, 6, 1, 2, math.NaN(), math.NaN(), math.NaN(), 5}
	if diff := cmp.Diff(want, out.Data().Values(), cmp.Comparer(func(x, y float64) bool {
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	})); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}

	reset, err := HStack([]*Dataset{a, a}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3"}, reset.ColIDs())
	assert.Equal(t, []string{"old_cid", "cell"}, reset.ColMeta().Fields())
	old, _ := reset.ColMeta().Column("old_cid")
	assert.Equal(t, []Value{String("a1"), String("a2"), String("a1"), String("a2")}, old)

	_, err = HStack([]*Dataset{a, a}, nil, false)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestHStackConflictingMetadata(t *testing.T) {
	a := part(t, []string{"r1"}, []string{"a1"}, []float64{1}, "G1")
	b := part(t, []string{"r1"}, []string{"b1"}, []float64{2}, "OTHER")

	_, err := HStack([]*Dataset{a, b}, nil, false)
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), `"r1"`)

	out, err := HStack([]*Dataset{a, b}, []string{"gene"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"batch"}, out.RowMeta().Fields())
	assert.Equal(t, []float64{1, 2}, out.Data().Values())

	_, err = HStack(nil, nil, false)
	assert.ErrorIs(t, err, ErrMalformedDimensions)
}

func TestVStack(t *testing.T) {
	a := part(t, []string{"r1"}, []string{"c2", "c1"}, []float64{1, 2}, "G1")
	b := part(t, []string{"r2"}, []string{"c1", "c2"}, []float64{3, 4}, "G2")

	out, err := VStack([]*Dataset{a, b}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, out.RowIDs())
	assert.Equal(t, []string{"c1", "c2"}, out.ColIDs())
	assert.Equal(t, []float64{2, 1, 3, 4}, out.Data().Values())
	assert.Equal(t, Rows, out.RowMeta().Axis)

	reset, err := VStack([]*Dataset{a, b}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, reset.RowIDs())
	assert.Equal(t, "old_rid", reset.RowMeta().Fields()[0])
}

func TestRandomSubset(t *testing.T) {
	d := sample(t)
	rng := rand.New(rand.NewPCG(1, 2))

	out, err := RandomSubset(d, 2, Cols, rng, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, out.RowIDs())
	assert.Equal(t, []string{"0", "1"}, out.ColIDs())
	assert.Equal(t, out.ColIDs(), out.ColMeta().IDs())

	again, err := RandomSubset(d, 2, Cols, rand.New(rand.NewPCG(1, 2)), false)
	require.NoError(t, err)
	assert.Equal(t, out.Data().Values(), again.Data().Values())

	out, err = RandomSubset(d, 1, Rows, rng, true)
	require.NoError(t, err)
	r, c := out.Shape()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	for _, id := range append(out.RowIDs(), out.ColIDs()...) {
		u, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
	}

	_, err = RandomSubset(d, 2, Rows, rng, false)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}
