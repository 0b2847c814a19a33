package gctx

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/gctoo"
	"github.com/robert-malhotra/go-gctx/hdf5"
)

var (
	rids = []string{"200814_at", "218597_s_at", "1007_s_at", "1053_at"}
	cids = []string{"s1", "s2", "s3"}
)

// sample is a 4 x 3 dataset with one missing metadata value. Fields are
// in sorted order, the order readers return them in.
func sample(t *testing.T) *gctoo.Dataset {
	t.Helper()
	values := []float32{11.3819, 2, 3, 4, 5, 5.1256, -7.5, 8, 9, 10, 11, 12}
	m, err := gctoo.NewMatrix32(rids, cids, values)
	require.NoError(t, err)

	row := gctoo.NewTable(gctoo.Rows, rids)
	require.NoError(t, row.AddField("pr_gene_id", []gctoo.Value{
		gctoo.Int(5720), gctoo.Int(513), gctoo.Int(780), gctoo.Int(5982),
	}))
	require.NoError(t, row.AddField("pr_gene_symbol", []gctoo.Value{
		gctoo.String("PSME1"), gctoo.String("ATP5D"), gctoo.String("DDR1"), gctoo.Missing(),
	}))

	col := gctoo.NewTable(gctoo.Cols, cids)
	require.NoError(t, col.AddField("pert_dose", []gctoo.Value{gctoo.Float(0.5), gctoo.Float(10), gctoo.Float(2)}))
	require.NoError(t, col.AddField("pert_iname", []gctoo.Value{
		gctoo.String("DMSO"), gctoo.String("vorinostat"), gctoo.String("DMSO"),
	}))

	ds, err := gctoo.New(m, row, col, gctoo.WithSrc("sample"))
	require.NoError(t, err)
	return ds
}

func writeSample(t *testing.T, opts ...Option) string {
	t.Helper()
	p, err := NewWriter(opts...).Write(sample(t), filepath.Join(t.TempDir(), "sample"), true)
	require.NoError(t, err)
	return p
}

var nanEqual = cmp.Comparer(func(a, b float64) bool { return a == b || (math.IsNaN(a) && math.IsNaN(b)) })

func TestRoundTrip(t *testing.T) {
	for name, opts := range map[string][]Option{
		"contiguous":   nil,
		"gzip shuffle": {WithCompression(CodecGzip, 4, true)},
		"zstd chunks":  {WithCompression(CodecZstd, 0, false), WithChunkShape(3, 2)},
		"lz4":          {WithCompression(CodecLZ4, 0, false)},
		"chunks":       {WithChunkShape(1, 1)},
	} {
		t.Run(name, func(t *testing.T) {
			p := writeSample(t, opts...)
			assert.Equal(t, ".gctx", filepath.Ext(p))

			want := sample(t)
			got, err := NewReader().Read(p, true, gctoo.Selector{}, gctoo.Selector{})
			require.NoError(t, err)

			if diff := cmp.Diff(want.Data().Values(), got.Data().Values(), nanEqual); diff != "" {
				t.Errorf("matrix (-want +got):\n%s", diff)
			}
			assert.Equal(t, rids, got.RowIDs())
			assert.Equal(t, cids, got.ColIDs())
			assert.True(t, got.Data().IsFloat32())
			assert.Equal(t, want.Fingerprint(), got.Fingerprint())
			assert.Equal(t, gctoo.DefaultVersion, got.Version)
			assert.Equal(t, p, got.Src)
			assert.Equal(t, []string{"pr_gene_id", "pr_gene_symbol"}, got.RowMeta().Fields())
		})
	}
}

func TestNullRoundTrip(t *testing.T) {
	p := writeSample(t)
	r := NewReader()

	raw, err := r.ReadRowMeta(p, false)
	require.NoError(t, err)
	sym, _ := raw.Column("pr_gene_symbol")
	assert.Equal(t, gctoo.String("-666"), sym[3])

	conv, err := r.ReadRowMeta(p, true)
	require.NoError(t, err)
	sym, _ = conv.Column("pr_gene_symbol")
	assert.True(t, sym[3].IsMissing())

	col, err := r.ReadColMeta(p, true)
	require.NoError(t, err)
	assert.Equal(t, cids, col.IDs())
	dose, _ := col.Column("pert_dose")
	assert.Equal(t, []gctoo.Value{gctoo.Float(0.5), gctoo.Float(10), gctoo.Float(2)}, dose)
}

func TestReadSingleRow(t *testing.T) {
	p := writeSample(t)
	full, err := NewReader().Read(p, true, gctoo.Selector{}, gctoo.Selector{})
	require.NoError(t, err)

	one, err := NewReader().Read(p, true, gctoo.ByIDs("218597_s_at"), gctoo.Selector{})
	require.NoError(t, err)
	r, c := one.Shape()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, full.Data().Row(1), one.Data().Row(0))
	assert.Equal(t, []string{"218597_s_at"}, one.RowMeta().IDs())
}

func TestReadSlices(t *testing.T) {
	p := writeSample(t, WithChunkShape(2, 2), WithCompression(CodecGzip, 1, false))
	r := NewReader()
	full, err := r.Read(p, true, gctoo.Selector{}, gctoo.Selector{})
	require.NoError(t, err)

	for _, sel := range []struct{ rows, cols gctoo.Selector }{
		{gctoo.ByIDs("1053_at", "200814_at"), gctoo.Selector{}},
		{gctoo.Selector{}, gctoo.ByIDs("s3")},
		{gctoo.ByIDs("1053_at", "1007_s_at", "200814_at"), gctoo.ByIDs("s2")},
		{gctoo.ByPositions(3), gctoo.ByPositions(2, 0)},
	} {
		rowPos, colPos, err := gctoo.ResolveSelectors(rids, cids, sel.rows, sel.cols)
		require.NoError(t, err)
		got, err := r.Read(p, true, sel.rows, sel.cols)
		require.NoError(t, err)
		nr, nc := got.Shape()
		require.Equal(t, len(rowPos), nr)
		require.Equal(t, len(colPos), nc)
		for i, rp := range rowPos {
			for j, cp := range colPos {
				assert.Equal(t, full.Data().At(rp, cp), got.Data().At(i, j))
			}
		}
		want, err := gctoo.Subset(full, rowPos, colPos)
		require.NoError(t, err)
		assert.True(t, want.RowMeta().Equal(got.RowMeta()))
		assert.True(t, want.ColMeta().Equal(got.ColMeta()))
	}
}

// TestDualAxisOrder reads three rows and one column, which reads rows from
// storage first, and checks the result against the other order applied to
// an uncompressed copy.
func TestDualAxisOrder(t *testing.T) {
	compressed := writeSample(t, WithCompression(CodecZstd, 0, true), WithChunkShape(2, 1))
	plain := writeSample(t)

	var logs bytes.Buffer
	r := NewReader(WithLogger(log.NewLogfmtLogger(&logs)))
	rows := gctoo.ByIDs("200814_at", "1007_s_at", "1053_at")
	cols := gctoo.ByIDs("s2")
	got, err := r.Read(compressed, true, rows, cols)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "dual-axis(row then column)")

	ref, err := NewReader().Read(plain, true, gctoo.Selector{}, cols)
	require.NoError(t, err)
	ref, err = gctoo.Select(ref, rows, gctoo.Selector{})
	require.NoError(t, err)
	assert.Equal(t, ref.Data().Values(), got.Data().Values())
	assert.Equal(t, []float64{2, 8, 11}, got.Data().Values())
}

func TestReadOptions(t *testing.T) {
	p := writeSample(t)
	r := NewReader()

	meta, err := r.Read(p, true, gctoo.ByPositions(0, 2), gctoo.Selector{}, MetadataOnly())
	require.NoError(t, err)
	nr, nc := meta.Shape()
	assert.Equal(t, 2, nr)
	assert.Equal(t, 3, nc)
	assert.True(t, math.IsNaN(meta.Data().At(1, 2)))
	assert.Equal(t, 2, meta.RowMeta().Len())

	mi, err := r.Read(p, true, gctoo.Selector{}, gctoo.Selector{}, MultiIndex())
	require.NoError(t, err)
	assert.Equal(t, gctoo.MultiIndexBuilt, mi.State())
	idx, err := mi.MultiIndex()
	require.NoError(t, err)
	v, err := idx.Cell("1053_at", "s3")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewReader()
	all := gctoo.Selector{}

	_, err := r.Read(filepath.Join(dir, "missing.gctx"), true, all, all)
	assert.ErrorIs(t, err, gctoo.ErrNotFound)

	text := filepath.Join(dir, "text.gctx")
	require.NoError(t, os.WriteFile(text, []byte("#1.3\n1\t1\t0\t0\n"), 0o644))
	_, err = r.Read(text, true, all, all)
	assert.ErrorIs(t, err, gctoo.ErrWrongFormat)

	b := hdf5.NewBuilder()
	g, err := b.Root().Group("0/META/ROW")
	require.NoError(t, err)
	require.NoError(t, g.WriteStrings("id", []string{"r1"}, 50))
	bare := filepath.Join(dir, "bare.gctx")
	require.NoError(t, b.WriteFile(bare))
	_, err = r.Read(bare, true, all, all)
	assert.ErrorIs(t, err, gctoo.ErrWrongFormat)
	_, err = r.ReadColMeta(bare, true)
	assert.ErrorIs(t, err, gctoo.ErrWrongFormat)

	p := writeSample(t)
	_, err = r.Read(p, true, gctoo.ByIDs("nope"), all)
	assert.ErrorIs(t, err, gctoo.ErrUnknownIdentifier)
	_, err = r.Read(p, true, gctoo.ByIDs("1053_at"), gctoo.ByPositions(0))
	assert.ErrorIs(t, err, gctoo.ErrInconsistentSelectorTypes)
	_, err = r.Read(p, true, all, gctoo.ByPositions(3))
	assert.ErrorIs(t, err, gctoo.ErrPositionOutOfRange)
}

// malformed writes a GCTX tree whose matrix or fields disagree with the ids.
func malformed(t *testing.T, matrixDims []uint64, field []string) string {
	t.Helper()
	b := hdf5.NewBuilder()
	b.Root().SetAttr(VersionAttr, "GCTX1.0")
	data, err := b.Root().Group("0/DATA/0")
	require.NoError(t, err)
	require.NoError(t, data.WriteFloat32("matrix", matrixDims, make([]float32, matrixDims[0]*matrixDims[1])))
	row, err := b.Root().Group("0/META/ROW")
	require.NoError(t, err)
	require.NoError(t, row.WriteStrings("id", []string{"r1", "r2"}, 50))
	require.NoError(t, row.WriteStrings("gene", field, 50))
	col, err := b.Root().Group("0/META/COL")
	require.NoError(t, err)
	require.NoError(t, col.WriteStrings("id", []string{"c1", "c2", "c3"}, 50))
	p := filepath.Join(t.TempDir(), "bad.gctx")
	require.NoError(t, b.WriteFile(p))
	return p
}

func TestMalformedDimensions(t *testing.T) {
	r := NewReader()
	all := gctoo.Selector{}

	_, err := r.Read(malformed(t, []uint64{2, 3}, []string{"a", "b"}), true, all, all)
	assert.ErrorIs(t, err, gctoo.ErrMalformedDimensions)

	_, err = r.Read(malformed(t, []uint64{3, 2}, []string{"a"}), true, all, all)
	assert.ErrorIs(t, err, gctoo.ErrMalformedDimensions)

	ok, err := r.Read(malformed(t, []uint64{3, 2}, []string{"a", "b"}), true, all, all)
	require.NoError(t, err)
	nr, nc := ok.Shape()
	assert.Equal(t, 2, nr)
	assert.Equal(t, 3, nc)
}

func TestVersionAndSrc(t *testing.T) {
	dir := t.TempDir()
	ds := sample(t)
	ds.Version = "1.3"
	p, err := NewWriter().Write(ds, filepath.Join(dir, "a.gctx"), true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.gctx"), p)
	got, err := NewReader().Read(p, true, gctoo.Selector{}, gctoo.Selector{})
	require.NoError(t, err)
	assert.Equal(t, gctoo.DefaultVersion, got.Version)

	ds.Version = "GCTX1.1"
	p, err = NewWriter(WithSrc("origin.gct")).Write(ds, filepath.Join(dir, "b"), true)
	require.NoError(t, err)
	f, err := hdf5.Open(p)
	require.NoError(t, err)
	defer f.Close()
	for attr, want := range map[string]string{"/@version": "GCTX1.1", "/@src": "origin.gct"} {
		a, err := f.Attr(attr)
		require.NoError(t, err)
		v, err := a.String()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	p, err = NewWriter(WithVersion("GCTX2.0")).Write(ds, filepath.Join(dir, "c"), true)
	require.NoError(t, err)
	got, err = NewReader().Read(p, true, gctoo.Selector{}, gctoo.Selector{})
	require.NoError(t, err)
	assert.Equal(t, "GCTX2.0", got.Version)
}

func TestWriterLayout(t *testing.T) {
	p := writeSample(t, WithCompression(CodecGzip, 0, true))
	f, err := hdf5.Open(p)
	require.NoError(t, err)
	defer f.Close()

	m, err := f.OpenDataset(MatrixPath)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, m.Shape())
	assert.Equal(t, []string{"shuffle", "deflate"}, m.Filters())

	id, err := f.OpenDataset(RowMetaPath + "/id")
	require.NoError(t, err)
	assert.Equal(t, 50, id.ElementSize())

	row, err := f.OpenGroup(RowMetaPath)
	require.NoError(t, err)
	names, err := row.Members()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "pr_gene_symbol", "pr_gene_id"}, names)
}

func TestWriteErrors(t *testing.T) {
	dir := t.TempDir()
	ds := sample(t)
	meta, err := gctoo.New(nil, ds.RowMeta(), nil)
	require.NoError(t, err)
	_, err = NewWriter().Write(meta, filepath.Join(dir, "x"), true)
	assert.ErrorIs(t, err, gctoo.ErrMalformedDimensions)

	col := gctoo.NewTable(gctoo.Cols, cids)
	require.NoError(t, col.AddField("id", make([]gctoo.Value, len(cids))))
	require.NoError(t, ds.SetColMeta(col))
	_, err = NewWriter().Write(ds, filepath.Join(dir, "y"), true)
	assert.ErrorIs(t, err, gctoo.ErrInvariantViolation)

	_, err = NewWriter().Write(sample(t), filepath.Join(dir, "no", "such", "dir"), true)
	assert.ErrorIs(t, err, gctoo.ErrIOFailure)
	_, err = os.Stat(filepath.Join(dir, "y.gctx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := writeSample(t, WithMetrics(m))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Writes))

	r := NewReader(WithMetrics(m))
	_, err := r.Read(p, true, gctoo.Selector{}, gctoo.Selector{})
	require.NoError(t, err)
	_, err = r.Read(p, true, gctoo.ByPositions(1), gctoo.Selector{})
	require.NoError(t, err)
	_, err = r.Read(p, true, gctoo.Selector{}, gctoo.Selector{}, MetadataOnly())
	require.NoError(t, err)
	_, err = r.Read(p+".missing", true, gctoo.Selector{}, gctoo.Selector{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reads.WithLabelValues("bulk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reads.WithLabelValues("single-axis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reads.WithLabelValues("metadata-only")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.CellsRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("read")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReadDuration, "gctx_read_duration_seconds"))
}

func TestFileNameAndCodec(t *testing.T) {
	assert.Equal(t, "a.gctx", FileName("a"))
	assert.Equal(t, "a.gctx", FileName("a.gctx"))
	assert.Equal(t, "a.gct.gctx", FileName("a.gct"))
	assert.Equal(t, "A.GCTX", FileName("A.GCTX"))

	c, ok := ParseCodec("ZSTD")
	assert.True(t, ok)
	assert.Equal(t, CodecZstd, c)
	c, ok = ParseCodec("")
	assert.True(t, ok)
	assert.Equal(t, CodecNone, c)
	_, ok = ParseCodec("brotli")
	assert.False(t, ok)
}
