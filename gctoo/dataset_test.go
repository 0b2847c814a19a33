package gctoo

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample builds the 2 x 3 dataset used throughout these tests.
func sample(t *testing.T, opts ...Option) *Dataset {
	t.Helper()
	rids := []string{"200814_at", "218597_s_at"}
	cids := []string{"s1", "s2", "s3"}
	m, err := NewMatrix(rids, cids, []float64{11.3819, 2.5, -1, 0, 7.25, 5.1256})
	require.NoError(t, err)

	row := NewTable(Rows, rids)
	require.NoError(t, row.AddField("pr_gene_symbol", []Value{String("PSME1"), String("ATP5D")}))
	require.NoError(t, row.AddField("is_bing", []Value{Int(1), Int(0)}))

	col := NewTable(Cols, cids)
	require.NoError(t, col.AddField("pert_iname", []Value{String("DMSO"), String("vorinostat"), String("DMSO")}))
	require.NoError(t, col.AddField("pert_dose", []Value{Float(0), Float(10), Missing()}))

	d, err := New(m, row, col, opts...)
	require.NoError(t, err)
	return d
}

func TestNewValidates(t *testing.T) {
	ids := func(s ...string) []string { return s }
	mat := func(rids, cids []string) *Matrix { return NaNMatrix(rids, cids) }
	withField := func(tab *Table, names ...string) *Table {
		for _, n := range names {
			require.NoError(t, tab.AddField(n, make([]Value, tab.Len())))
		}
		return tab
	}
	tests := []struct {
		name     string
		data     *Matrix
		row, col *Table
		msg      string
	}{
		{"duplicate data rid", mat(ids("a", "a"), ids("x")), nil, nil, "duplicate data rids [a]"},
		{"duplicate data cid", mat(ids("a"), ids("x", "y", "x")), nil, nil, "duplicate data cids [x]"},
		{"duplicate row meta id", nil, NewTable(Rows, ids("a", "b", "b")), nil, "duplicate row metadata ids [b]"},
		{"duplicate col meta id", nil, nil, NewTable(Cols, ids("x", "x")), "duplicate column metadata ids [x]"},
		{"duplicate field", nil, withField(NewTable(Rows, ids("a")), "f", "f"), nil, "duplicate row metadata fields [f]"},
		{"rid order", mat(ids("a", "b"), ids("x")), NewTable(Rows, ids("b", "a")), nil, "data rids and row metadata ids differ"},
		{"rid content", mat(ids("a", "b"), ids("x")), NewTable(Rows, ids("a")), nil, "data rids and row metadata ids differ"},
		{"cid", mat(ids("a"), ids("x", "y")), nil, NewTable(Cols, ids("x", "z")), "data cids and column metadata ids differ"},
		{"ids before fields", mat(ids("a", "a"), ids("x")), withField(NewTable(Rows, ids("a", "a")), "f", "f"), nil, "duplicate data rids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.data, tt.row, tt.col)
			assert.Nil(t, d)
			require.ErrorIs(t, err, ErrInvariantViolation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDatasetState(t *testing.T) {
	empty, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Ready, empty.State())
	r, c := empty.Shape()
	assert.Zero(t, r)
	assert.Zero(t, c)

	d := sample(t)
	assert.Equal(t, Ready, d.State())
	assert.Equal(t, DefaultVersion, d.Version)

	d = sample(t, WithMultiIndex(), WithSrc("x.gctx"), WithVersion("GCTX1.1"))
	assert.Equal(t, MultiIndexBuilt, d.State())
	assert.Equal(t, "x.gctx", d.Src)
	assert.Equal(t, "GCTX1.1", d.Version)

	require.NoError(t, d.SetColMeta(NewTable(Cols, d.ColIDs())))
	assert.Equal(t, Ready, d.State())
	_, err = d.MultiIndex()
	require.NoError(t, err)
	assert.Equal(t, MultiIndexBuilt, d.State())

	meta, err := New(nil, NewTable(Rows, []string{"a"}), nil)
	require.NoError(t, err)
	_, err = meta.MultiIndex()
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestDatasetReplace(t *testing.T) {
	d := sample(t)
	before := d.Fingerprint()

	err := d.SetRowMeta(NewTable(Rows, []string{"218597_s_at", "200814_at"}))
	assert.ErrorIs(t, err, ErrInvariantViolation)
	err = d.SetData(NaNMatrix([]string{"200814_at", "218597_s_at"}, []string{"s1", "s2"}))
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, before, d.Fingerprint())

	m := NaNMatrix(d.RowIDs(), d.ColIDs())
	require.NoError(t, d.SetData(m))
	assert.Same(t, m, d.Data())
	assert.NotEqual(t, before, d.Fingerprint())

	require.NoError(t, d.SetRowMeta(nil))
	assert.Nil(t, d.RowMeta())
	assert.Equal(t, []string{"200814_at", "218597_s_at"}, d.RowIDs())
}

func TestDatasetOwnsTables(t *testing.T) {
	m := NaNMatrix([]string{"200814_at", "218597_s_at"}, []string{"s1", "s2", "s3"})
	row := NewTable(Rows, m.RowIDs())
	require.NoError(t, row.AddField("gene", []Value{String("PSME1"), String("ATP5D")}))
	d, err := New(m, row, nil)
	require.NoError(t, err)
	before := d.Fingerprint()

	// The caller's table is detached once handed over.
	require.NoError(t, row.AddField("later", []Value{Int(1), Int(2)}))
	assert.Equal(t, []string{"gene"}, d.RowMeta().Fields())

	// Tables read back from the dataset cannot grow in place, even twice.
	for range 2 {
		err = d.RowMeta().AddField("f", []Value{Int(1), Int(2)})
		assert.ErrorIs(t, err, ErrInvariantViolation)
	}
	assert.Equal(t, 1, d.RowMeta().NumFields())

	d.RowIDs()[1] = "a"
	d.ColIDs()[0] = "a"
	d.Data().RowIDs()[0] = "a"
	d.RowMeta().IDs()[0] = "a"
	d.RowMeta().Fields()[0] = "a"
	gene, _ := d.RowMeta().Column("gene")
	gene[0] = String("a")
	assert.Equal(t, []string{"200814_at", "218597_s_at"}, d.RowIDs())
	assert.Equal(t, []string{"s1", "s2", "s3"}, d.ColIDs())
	assert.Equal(t, before, d.Fingerprint())

	// Growing a clone and replacing is the supported route.
	grown := d.RowMeta().Clone()
	require.NoError(t, grown.AddField("f", []Value{Int(1), Int(2)}))
	require.NoError(t, d.SetRowMeta(grown))
	assert.Equal(t, []string{"gene", "f"}, d.RowMeta().Fields())
	assert.Error(t, d.RowMeta().AddField("g", []Value{Int(1), Int(2)}))
	require.NoError(t, grown.AddField("g", []Value{Int(1), Int(2)}))
	assert.Equal(t, 2, d.RowMeta().NumFields())
}

func TestDatasetString(t *testing.T) {
	d := sample(t, WithSrc("a.gctx"))
	want := "GCT vGCTX1.0\nsrc: a.gctx\ndata_df: [2 rows x 3 columns]\nrow_metadata_df: [2 rows x 2 columns]\ncol_metadata_df: [3 rows x 2 columns]"
	assert.Equal(t, want, d.String())

	empty, err := New(nil, nil, nil, WithVersion("1.3"))
	require.NoError(t, err)
	assert.Contains(t, empty.String(), "data_df: None\nrow_metadata_df: None")
}

func TestFingerprint(t *testing.T) {
	a, b := sample(t), sample(t, WithSrc("elsewhere"))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Data().Set(1, 2, math.NaN())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	a.Data().Set(1, 2, math.Float64frombits(0x7ff8000000000001))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	col := a.ColMeta().Clone()
	col.cols[1][2] = String("")
	require.NoError(t, a.SetColMeta(col))
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestMatrix(t *testing.T) {
	_, err := NewMatrix([]string{"a"}, []string{"x", "y"}, []float64{1})
	assert.ErrorIs(t, err, ErrMalformedDimensions)

	m, err := NewMatrix32([]string{"a", "b"}, []string{"x", "y", "z"}, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.True(t, m.IsFloat32())
	assert.Equal(t, []float64{4, 5, 6}, m.Row(1))

	tr := m.Transpose()
	assert.Equal(t, []string{"x", "y", "z"}, tr.RowIDs())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Values())
	assert.True(t, tr.IsFloat32())

	sub := m.Subset([]int{1}, []int{2, 0})
	if diff := cmp.Diff([]float64{6, 4}, sub.Values()); diff != "" {
		t.Errorf("subset (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Float32s())
	assert.True(t, m.Equal(tr.Transpose()))
}
