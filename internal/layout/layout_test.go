package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/alloc"
	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var cfg = binary.DefaultConfig()

// matrix returns a rows x cols uint16 array whose element (i, j) is
// i*100+j.
func matrix(rows, cols uint64) []byte {
	out := make([]byte, 0, rows*cols*2)
	for i := range rows {
		for j := range cols {
			v := uint16(i*100 + j)
			out = append(out, byte(v), byte(v>>8))
		}
	}
	return out
}

func values(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return out
}

func expect(rows, cols []uint64) []uint16 {
	var out []uint16
	for _, i := range rows {
		for _, j := range cols {
			out = append(out, uint16(i*100+j))
		}
	}
	return out
}

func seq(from, to uint64) []uint64 {
	var out []uint64
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

type fixture struct {
	buf binary.Buffer
	a   *alloc.Allocator
}

func newFixture() *fixture { return &fixture{a: alloc.New(64)} }

func (f *fixture) storage(t *testing.T, l *message.DataLayout, dims []uint64, fp *message.FilterPipeline) *Storage {
	t.Helper()
	s, err := New(l, message.NewSimpleDataspace(dims...), 2, fp, binary.NewReader(&f.buf, cfg))
	require.NoError(t, err)
	return s
}

func TestContiguous(t *testing.T) {
	f := newFixture()
	l, err := WriteContiguous(&f.buf, f.a, cfg, matrix(6, 9))
	require.NoError(t, err)
	assert.Equal(t, uint64(6*9*2), l.Size)
	s := f.storage(t, l, []uint64{6, 9}, nil)

	all, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, expect(seq(0, 6), seq(0, 9)), values(all))

	cols, err := s.ReadIndices(1, []uint64{0, 4, 5, 8})
	require.NoError(t, err)
	assert.Equal(t, expect(seq(0, 6), []uint64{0, 4, 5, 8}), values(cols))

	rows, err := s.ReadIndices(0, []uint64{1, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, expect([]uint64{1, 2, 5}, seq(0, 9)), values(rows))

	slab, err := s.ReadSlice([]uint64{2, 3}, []uint64{3, 2})
	require.NoError(t, err)
	assert.Equal(t, expect(seq(2, 5), seq(3, 5)), values(slab))
}

func TestContiguousUnwritten(t *testing.T) {
	f := newFixture()
	l, err := WriteContiguous(&f.buf, f.a, cfg, nil)
	require.NoError(t, err)
	s := f.storage(t, l, []uint64{2, 2}, nil)
	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), got)
}

func TestChunkedRoundTrip(t *testing.T) {
	gzip, err := filter.Describe("gzip", 0, true, 2)
	require.NoError(t, err)
	zstd, err := filter.Describe("zstd", 0, false, 2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		dims  []uint64
		chunk []uint32
		fp    *message.FilterPipeline
	}{
		{"unfiltered", []uint64{7, 10}, []uint32{3, 4}, nil},
		{"single chunk", []uint64{7, 10}, []uint32{7, 10}, nil},
		{"row chunks", []uint64{7, 10}, []uint32{1, 10}, nil},
		{"gzip shuffle", []uint64{7, 10}, []uint32{4, 3}, gzip},
		{"zstd", []uint64{5, 33}, []uint32{2, 16}, zstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rows, cols := tt.dims[0], tt.dims[1]
			l, err := WriteChunked(&f.buf, f.a, cfg, matrix(rows, cols), tt.dims, tt.chunk, 2, tt.fp)
			require.NoError(t, err)
			require.NoError(t, f.a.Validate())
			assert.Equal(t, message.IndexFixedArray, l.Index)
			s := f.storage(t, l, tt.dims, tt.fp)

			all, err := s.Read()
			require.NoError(t, err)
			if diff := cmp.Diff(expect(seq(0, rows), seq(0, cols)), values(all)); diff != "" {
				t.Errorf("Read mismatch (-want +got):\n%s", diff)
			}

			pick := []uint64{0, 2, 3, cols - 1}
			got, err := s.ReadIndices(1, pick)
			require.NoError(t, err)
			assert.Equal(t, expect(seq(0, rows), pick), values(got))

			got, err = s.ReadIndices(0, []uint64{rows - 1})
			require.NoError(t, err)
			assert.Equal(t, expect([]uint64{rows - 1}, seq(0, cols)), values(got))

			got, err = s.ReadSlice([]uint64{1, 1}, []uint64{rows - 2, cols - 2})
			require.NoError(t, err)
			assert.Equal(t, expect(seq(1, rows-1), seq(1, cols-1)), values(got))
		})
	}
}

func TestImplicitIndex(t *testing.T) {
	f := newFixture()
	// 4x4 in 2x2 chunks, stored back to back in grid order.
	base := f.a.Alloc(4*8, "chunks")
	var raw []byte
	for _, g := range [][2]uint64{{0, 0}, {0, 2}, {2, 0}, {2, 2}} {
		for i := range uint64(2) {
			for j := range uint64(2) {
				v := uint16((g[0]+i)*100 + g[1] + j)
				raw = append(raw, byte(v), byte(v>>8))
			}
		}
	}
	_, _ = f.buf.WriteAt(raw, int64(base))
	l := &message.DataLayout{Version: 4, Class: message.LayoutChunked, ChunkDims: []uint32{2, 2, 2},
		Index: message.IndexImplicit, IndexAddr: base}
	s := f.storage(t, l, []uint64{4, 4}, nil)

	got, err := s.ReadIndices(1, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, expect(seq(0, 4), []uint64{1, 2}), values(got))
}

func TestCompact(t *testing.T) {
	l := &message.DataLayout{Version: 3, Class: message.LayoutCompact, CompactData: matrix(2, 3)}
	s := newFixture().storage(t, l, []uint64{2, 3}, nil)
	got, err := s.ReadIndices(1, []uint64{2})
	require.NoError(t, err)
	assert.Equal(t, []uint16{2, 102}, values(got))

	l.CompactData = l.CompactData[:4]
	_, err = New(l, message.NewSimpleDataspace(2, 3), 2, nil, nil)
	assert.Error(t, err)
}

func TestInvalidSelection(t *testing.T) {
	f := newFixture()
	l, err := WriteContiguous(&f.buf, f.a, cfg, matrix(3, 3))
	require.NoError(t, err)
	s := f.storage(t, l, []uint64{3, 3}, nil)

	for name, read := range map[string]func() ([]byte, error){
		"out of range":  func() ([]byte, error) { return s.ReadIndices(0, []uint64{3}) },
		"unsorted":      func() ([]byte, error) { return s.ReadIndices(1, []uint64{2, 1}) },
		"duplicate":     func() ([]byte, error) { return s.ReadIndices(1, []uint64{1, 1}) },
		"bad axis":      func() ([]byte, error) { return s.ReadIndices(2, []uint64{0}) },
		"slab overflow": func() ([]byte, error) { return s.ReadSlice([]uint64{2, 0}, []uint64{2, 3}) },
		"rank mismatch": func() ([]byte, error) { return s.ReadSlice([]uint64{0}, []uint64{1, 1}) },
	} {
		_, err := read()
		assert.ErrorIs(t, err, ErrInvalidSelection, name)
	}

	got, err := s.ReadIndices(0, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func checked(b []byte) []byte {
	sum := make([]byte, 4)
	binary.EncodeUint(cfg.ByteOrder, sum, uint64(binary.Lookup3Checksum(b)))
	return append(b, sum...)
}

func le(v uint64, n int) []byte {
	b := make([]byte, n)
	binary.EncodeUint(cfg.ByteOrder, b, v)
	return b
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestPagedFixedArray(t *testing.T) {
	// Five entries, two per page; page 1 was never initialised.
	var buf binary.Buffer
	hdr := checked(cat([]byte("FAHD"), []byte{0, 0, 8, 1}, le(5, 8), le(100, 8)))
	_, _ = buf.WriteAt(hdr, 0)
	prefix := checked(cat([]byte("FADB"), []byte{0, 0}, le(0, 8), []byte{0b1010_0000}))
	_, _ = buf.WriteAt(prefix, 100)
	pageAt := func(p int64) int64 { return 100 + int64(len(prefix)) + p*(2*8+4) }
	_, _ = buf.WriteAt(checked(cat(le(1000, 8), le(2000, 8))), pageAt(0))
	_, _ = buf.WriteAt(checked(le(5000, 8)), pageAt(2))

	idx, err := readFixedArray(binary.NewReader(&buf, cfg), 0, 16)
	require.NoError(t, err)
	want := arrayIndex{{addr: 1000, size: 16}, {addr: 2000, size: 16}, {}, {}, {addr: 5000, size: 16}}
	if diff := cmp.Diff(want, idx, cmp.AllowUnexported(chunkRef{})); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	_, ok := idx.lookup(3)
	assert.False(t, ok)
}

func TestFixedArrayChecksum(t *testing.T) {
	f := newFixture()
	l, err := WriteChunked(&f.buf, f.a, cfg, matrix(4, 4), []uint64{4, 4}, []uint32{2, 2}, 2, nil)
	require.NoError(t, err)
	raw := f.buf.Bytes()
	raw[l.IndexAddr+9] ^= 0xFF
	_, err = f.storage(t, l, []uint64{4, 4}, nil).Read()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestFilteredSizeWidth(t *testing.T) {
	assert.Equal(t, 2, filteredSizeWidth(1))
	assert.Equal(t, 2, filteredSizeWidth(255))
	assert.Equal(t, 3, filteredSizeWidth(256))
	assert.Equal(t, 4, filteredSizeWidth(4<<20))
	assert.Equal(t, 8, filteredSizeWidth(1<<62))
}
