package message

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var cfg = binary.DefaultConfig()

func reparse(t *testing.T, m Encoder) Message {
	t.Helper()
	raw, err := m.Encode(cfg)
	require.NoError(t, err)
	got, err := Parse(m.Type(), raw, cfg)
	require.NoError(t, err)
	return got
}

func TestDatatypeFloat32(t *testing.T) {
	got := reparse(t, NewFloat(4)).(*Datatype)
	assert.Equal(t, ClassFloatPoint, got.Class)
	assert.Equal(t, uint32(4), got.Size)
	assert.Equal(t, uint16(32), got.BitPrecision)
	assert.Equal(t, OrderLE, got.ByteOrder)
	assert.Equal(t, "float32", got.String())
}

func TestDatatypeStrings(t *testing.T) {
	fixed := reparse(t, NewFixedString(50, PadNullPad)).(*Datatype)
	assert.Equal(t, ClassString, fixed.Class)
	assert.Equal(t, PadNullPad, fixed.Pad)
	assert.True(t, fixed.IsString())

	vlen := reparse(t, NewVarLenString()).(*Datatype)
	assert.True(t, vlen.VarLenString)
	assert.Equal(t, CharsetUTF8, vlen.Charset)
	require.NotNil(t, vlen.Base)
	assert.Equal(t, uint32(1), vlen.Base.Size)
}

func TestDatatypeInteger(t *testing.T) {
	got := reparse(t, NewInteger(8, true)).(*Datatype)
	assert.True(t, got.Signed)
	assert.Equal(t, "int64", got.String())
}

func TestDataspace(t *testing.T) {
	got := reparse(t, NewSimpleDataspace(3, 2)).(*Dataspace)
	assert.Equal(t, []uint64{3, 2}, got.Dimensions)
	assert.Equal(t, uint64(6), got.NumElements())

	scalar := reparse(t, NewScalarDataspace()).(*Dataspace)
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, uint64(1), scalar.NumElements())
}

func TestDataspaceV1(t *testing.T) {
	// version 1, rank 2, max dims present, 5 reserved bytes.
	raw := []byte{1, 2, 1, 0, 0, 0, 0, 0}
	for _, v := range []uint64{4, 3, 4, 3} {
		b := make([]byte, 8)
		binary.EncodeUint(cfg.ByteOrder, b, v)
		raw = append(raw, b...)
	}
	m, err := Parse(TypeDataspace, raw, cfg)
	require.NoError(t, err)
	ds := m.(*Dataspace)
	assert.Equal(t, []uint64{4, 3}, ds.Dimensions)
	assert.Equal(t, []uint64{4, 3}, ds.MaxDims)
}

func TestLayoutContiguous(t *testing.T) {
	got := reparse(t, NewContiguousLayout(0x400, 96)).(*DataLayout)
	assert.Equal(t, LayoutContiguous, got.Class)
	assert.Equal(t, uint64(0x400), got.Address)
	assert.Equal(t, uint64(96), got.Size)
}

func TestLayoutFixedArray(t *testing.T) {
	got := reparse(t, NewFixedArrayLayout([]uint32{100, 1000}, 4, 0x900, 10)).(*DataLayout)
	assert.Equal(t, LayoutChunked, got.Class)
	assert.Equal(t, IndexFixedArray, got.Index)
	assert.Equal(t, []uint32{100, 1000, 4}, got.ChunkDims)
	assert.Equal(t, uint64(0x900), got.IndexAddr)
	assert.Equal(t, uint8(10), got.PageBits)
}

func TestLayoutV3Chunked(t *testing.T) {
	// version 3, chunked, 3 dims, B-tree address, 10 x 20 chunks of 4 bytes.
	raw := []byte{3, 2, 3}
	addr := make([]byte, 8)
	binary.EncodeUint(cfg.ByteOrder, addr, 0x1234)
	raw = append(raw, addr...)
	for _, v := range []uint32{10, 20, 4} {
		raw = append(raw, byte(v), 0, 0, 0)
	}
	m, err := Parse(TypeDataLayout, raw, cfg)
	require.NoError(t, err)
	l := m.(*DataLayout)
	assert.Equal(t, IndexBTreeV1, l.Index)
	assert.Equal(t, uint64(0x1234), l.IndexAddr)
	assert.Equal(t, []uint32{10, 20, 4}, l.ChunkDims)
}

func TestFilterPipeline(t *testing.T) {
	fp := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{4}},
		{ID: FilterDeflate, ClientData: []uint32{6}},
		{ID: FilterZstd, Name: "zstd", ClientData: []uint32{3}},
	}}
	got := reparse(t, fp).(*FilterPipeline)
	want := []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{4}},
		{ID: FilterDeflate, ClientData: []uint32{6}},
		{ID: FilterZstd, Name: "zstd", ClientData: []uint32{3}},
	}
	if diff := cmp.Diff(want, got.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Has(FilterZstd))
	assert.False(t, got.Has(FilterLZ4))
}

func TestFilterPipelineV1(t *testing.T) {
	// version 1, one deflate filter named "deflate" with one parameter.
	raw := []byte{1, 1, 0, 0, 0, 0, 0, 0,
		1, 0, 8, 0, 0, 0, 1, 0}
	raw = append(raw, []byte("deflate\x00")...)
	raw = append(raw, 9, 0, 0, 0, 0, 0, 0, 0)
	m, err := Parse(TypeFilterPipeline, raw, cfg)
	require.NoError(t, err)
	fp := m.(*FilterPipeline)
	require.Len(t, fp.Filters, 1)
	assert.Equal(t, "deflate", fp.Filters[0].Name)
	assert.Equal(t, []uint32{9}, fp.Filters[0].ClientData)
}

func TestAttribute(t *testing.T) {
	got := reparse(t, NewStringAttribute("version", "GCTX1.0")).(*Attribute)
	assert.Equal(t, "version", got.Name)
	assert.True(t, got.Dataspace.IsScalar())
	assert.Equal(t, "GCTX1.0", string(got.Data))
}

func TestAttributeV1Padding(t *testing.T) {
	dt, err := NewFixedString(4, PadNullPad).Encode(cfg)
	require.NoError(t, err)
	ds := []byte{1, 0, 0, 0, 0, 0, 0, 0}

	raw := []byte{1, 0, 4, 0, byte(len(dt)), 0, byte(len(ds)), 0}
	raw = append(raw, []byte("src\x00\x00\x00\x00\x00")...)
	raw = append(raw, dt...)
	raw = append(raw, ds...)
	raw = append(raw, []byte("a.gc")...)

	m, err := Parse(TypeAttribute, raw, cfg)
	require.NoError(t, err)
	a := m.(*Attribute)
	assert.Equal(t, "src", a.Name)
	assert.True(t, a.Dataspace.IsScalar())
	assert.Equal(t, "a.gc", string(a.Data))
}

func TestHardLink(t *testing.T) {
	got := reparse(t, NewHardLink("matrix", 0x2A0)).(*Link)
	assert.Equal(t, LinkHard, got.LinkType)
	assert.Equal(t, "matrix", got.Name)
	assert.Equal(t, uint64(0x2A0), got.Address)
}

func TestLinkInfo(t *testing.T) {
	compact := reparse(t, &LinkInfo{}).(*LinkInfo)
	assert.False(t, compact.Dense)

	dense := reparse(t, &LinkInfo{Dense: true, HeapAddress: 0x400, NameIndexAddress: 0x600}).(*LinkInfo)
	assert.True(t, dense.Dense)
	assert.Equal(t, uint64(0x400), dense.HeapAddress)
	assert.Equal(t, uint64(0x600), dense.NameIndexAddress)

	// Creation order tracked and indexed, as h5py writes with track_order.
	raw := []byte{0, 0x03, 9, 0, 0, 0, 0, 0, 0, 0}
	raw = append(raw, 0x00, 0x05, 0, 0, 0, 0, 0, 0)
	raw = append(raw, 0x00, 0x07, 0, 0, 0, 0, 0, 0)
	raw = append(raw, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	m, err := Parse(TypeLinkInfo, raw, cfg)
	require.NoError(t, err)
	li := m.(*LinkInfo)
	assert.Equal(t, uint64(9), li.MaxCreationIndex)
	assert.Equal(t, uint64(0x500), li.HeapAddress)
	assert.True(t, li.Dense)

	_, err = Parse(TypeLinkInfo, []byte{1, 0}, cfg)
	assert.ErrorContains(t, err, "link info version 1")
	_, err = Parse(TypeLinkInfo, raw[:12], cfg)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnknownMessagePassesThrough(t *testing.T) {
	m, err := Parse(TypeModTime, []byte{1, 0, 0, 0, 9, 9, 9, 9}, cfg)
	require.NoError(t, err)
	assert.Equal(t, TypeModTime, m.Type())
	assert.IsType(t, &Unknown{}, m)
}

func TestTruncatedMessage(t *testing.T) {
	_, err := Parse(TypeDataspace, []byte{2, 2, 0, 1, 5}, cfg)
	assert.ErrorIs(t, err, ErrTruncated)
}
