package export

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/gctoo"
)

func sample(t *testing.T) *gctoo.Dataset {
	t.Helper()
	rids := []string{"200814_at", "218597_s_at"}
	cids := []string{"s1", "s2"}
	m, err := gctoo.NewMatrix(rids, cids, []float64{1.5, math.NaN(), -2, 4})
	require.NoError(t, err)

	row := gctoo.NewTable(gctoo.Rows, rids)
	require.NoError(t, row.AddField("pr_gene_symbol", []gctoo.Value{gctoo.String("PSME1"), gctoo.Missing()}))
	require.NoError(t, row.AddField("is_bing", []gctoo.Value{gctoo.Int(1), gctoo.Int(0)}))
	require.NoError(t, row.AddField("mixed", []gctoo.Value{gctoo.Int(3), gctoo.String("x")}))

	col := gctoo.NewTable(gctoo.Cols, cids)
	d, err := gctoo.New(m, row, col)
	require.NoError(t, err)
	return d
}

func names(s *arrow.Schema) []string {
	var out []string
	for _, f := range s.Fields() {
		out = append(out, f.Name)
	}
	return out
}

func TestTable(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tbl, err := Table(sample(t), mem, true)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"rid", "pr_gene_symbol", "is_bing", "mixed", "s1", "s2"}, names(tbl.Schema()))
	assert.EqualValues(t, 2, tbl.NumRows())
	assert.Equal(t, arrow.PrimitiveTypes.Int64, tbl.Schema().Field(2).Type)
	assert.Equal(t, arrow.BinaryTypes.String, tbl.Schema().Field(3).Type)

	sym := tbl.Column(1).Data().Chunk(0).(*array.String)
	assert.Equal(t, "PSME1", sym.Value(0))
	assert.True(t, sym.IsNull(1))

	s2 := tbl.Column(5).Data().Chunk(0).(*array.Float64)
	assert.True(t, s2.IsNull(0))
	assert.Equal(t, 4.0, s2.Value(1))
}

func TestTableWithoutMeta(t *testing.T) {
	tbl, err := Table(sample(t), nil, false)
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, []string{"rid", "s1", "s2"}, names(tbl.Schema()))
}

func TestTableNameClash(t *testing.T) {
	rids := []string{"r"}
	m, err := gctoo.NewMatrix(rids, []string{"dose"}, []float64{1})
	require.NoError(t, err)
	row := gctoo.NewTable(gctoo.Rows, rids)
	require.NoError(t, row.AddField("dose", []gctoo.Value{gctoo.Float(1)}))
	d, err := gctoo.New(m, row, nil)
	require.NoError(t, err)

	_, err = Table(d, nil, true)
	assert.ErrorIs(t, err, gctoo.ErrInvariantViolation)
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, WriteParquet(sample(t), path, Options{RowMeta: true, Compression: "zstd"}))

	pf, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer pf.Close()
	cc, err := pf.RowGroup(0).MetaData().ColumnChunk(0)
	require.NoError(t, err)
	assert.Equal(t, compress.Codecs.Zstd, cc.Compression())

	r, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	tbl, err := r.ReadTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"rid", "pr_gene_symbol", "is_bing", "mixed", "s1", "s2"}, names(tbl.Schema()))
	rid := tbl.Column(0).Data().Chunk(0).(*array.String)
	assert.Equal(t, "218597_s_at", rid.Value(1))
	s1 := tbl.Column(4).Data().Chunk(0).(*array.Float64)
	assert.Equal(t, []float64{1.5, -2}, s1.Float64Values())
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, compress.Codecs.Snappy, c)
	_, err = ParseCompression("brotli2")
	assert.Error(t, err)
}
