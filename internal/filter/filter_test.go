package filter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// floats returns n little-endian float32 values with a slowly varying
// pattern, the kind of data the matrix filters see.
func floats(n int) []byte {
	out := make([]byte, 0, 4*n)
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(i%17)*0.25))
	}
	return out
}

func TestFiltersInvert(t *testing.T) {
	in := floats(1000)
	for _, f := range []Filter{NewDeflate(6), NewShuffle(4), Fletcher32{}, NewZstd(3), NewLZ4(0), NewLZ4(512)} {
		t.Run(Name(f.ID()), func(t *testing.T) {
			enc, err := f.Encode(in)
			require.NoError(t, err)
			dec, err := f.Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, in, dec)
		})
	}
}

func TestCompressorsShrinkRepetitiveData(t *testing.T) {
	in := floats(4096)
	for _, f := range []Filter{NewDeflate(6), NewZstd(3), NewLZ4(0)} {
		enc, err := f.Encode(in)
		require.NoError(t, err)
		assert.Less(t, len(enc), len(in)/2, Name(f.ID()))
	}
}

func TestShuffleLayout(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5, 6, 7}
	out, err := NewShuffle(2).Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 3, 5, 2, 4, 6, 7}, out)
}

func TestLZ4StoresIncompressibleBlocksRaw(t *testing.T) {
	in := []byte{9, 1, 7}
	enc, err := NewLZ4(0).Encode(in)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(enc[:8]))
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(enc[12:16]))
	assert.Equal(t, in, enc[16:])
}

func TestLZ4Truncated(t *testing.T) {
	enc, err := NewLZ4(0).Encode(floats(256))
	require.NoError(t, err)
	_, err = NewLZ4(0).Decode(enc[:len(enc)-10])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLZ4RejectsOversizedHeader(t *testing.T) {
	enc, err := NewLZ4(0).Encode(floats(100))
	require.NoError(t, err)

	huge := bytes.Clone(enc)
	binary.BigEndian.PutUint64(huge[:8], 1<<40)
	_, err = NewLZ4(0).Decode(huge)
	assert.ErrorIs(t, err, ErrCorrupt)

	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterFletcher32},
		{ID: message.FilterLZ4, Flags: 1},
	}}
	p, err := NewPipeline(fp)
	require.NoError(t, err)
	in := floats(100)
	chunk, err := p.Encode(in)
	require.NoError(t, err)

	// The lz4 stage sees the chunk plus the checksum trailer.
	p.Limit(uint64(len(in)))
	dec, err := p.Decode(chunk, 0)
	require.NoError(t, err)
	assert.Equal(t, in, dec)

	p.Limit(uint64(len(in) / 2))
	_, err = p.Decode(chunk, 0)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorContains(t, err, "chunk holds 204")
}

func TestDeflateLimit(t *testing.T) {
	in := floats(1000)
	enc, err := NewDeflate(6).Encode(in)
	require.NoError(t, err)

	f := NewDeflate(6)
	f.limitOutput(uint64(len(in)))
	dec, err := f.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)

	f.limitOutput(uint64(len(in) - 1))
	_, err = f.Decode(enc)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFletcher32Mismatch(t *testing.T) {
	enc, err := Fletcher32{}.Encode([]byte("matrix chunk"))
	require.NoError(t, err)
	enc[0] ^= 0x01
	_, err = Fletcher32{}.Decode(enc)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestPipelineOrderAndMask(t *testing.T) {
	fp, err := Describe("gzip", 5, true, 4)
	require.NoError(t, err)
	require.Len(t, fp.Filters, 2)
	assert.Equal(t, message.FilterShuffle, fp.Filters[0].ID)
	assert.Equal(t, message.FilterDeflate, fp.Filters[1].ID)

	p, err := NewPipeline(fp)
	require.NoError(t, err)
	in := floats(300)
	enc, err := p.Encode(in)
	require.NoError(t, err)
	dec, err := p.Decode(enc, 0)
	require.NoError(t, err)
	assert.Equal(t, in, dec)

	// A chunk written with deflate skipped is only unshuffled.
	shuffled, err := NewShuffle(4).Encode(in)
	require.NoError(t, err)
	dec, err = p.Decode(shuffled, 1<<1)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(in, dec))
}

func TestUnsupportedFilters(t *testing.T) {
	_, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterSZIP}}})
	assert.ErrorIs(t, err, ErrUnsupported)

	p, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: 40000, Flags: 1}}})
	require.NoError(t, err)
	assert.True(t, p.Empty())

	_, err = Describe("brotli", 0, false, 4)
	assert.ErrorIs(t, err, ErrUnsupported)
}
