package binary

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWidths(t *testing.T) {
	src := &Buffer{}
	w := NewWriter(src, Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2})
	require.NoError(t, w.WriteUint8(0x42))
	require.NoError(t, w.WriteOffset(0xCAFEBABE))
	require.NoError(t, w.WriteLength(0x0102))
	require.NoError(t, w.WriteUint64(1<<40))

	r := NewReader(src, Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2})
	v8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), v8)

	off, err := r.ReadOffset()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xCAFEBABE), off)

	n, err := r.ReadLength()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102), n)

	v64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), v64)
	assert.Equal(t, int64(15), r.Pos())
}

func TestReaderShortRead(t *testing.T) {
	src := &Buffer{}
	_, _ = src.WriteAt([]byte{1, 2, 3}, 0)

	r := NewReader(src, DefaultConfig())
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderAtIsIndependent(t *testing.T) {
	src := &Buffer{}
	_, _ = src.WriteAt([]byte{1, 2, 3, 4}, 0)

	r := NewReader(src, DefaultConfig())
	sub := r.At(2)
	b, err := sub.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), b)
	assert.Equal(t, int64(0), r.Pos())

	peek, err := r.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, peek)
	assert.Equal(t, int64(0), r.Pos())
}

func TestAlign(t *testing.T) {
	r := NewReader(&Buffer{}, DefaultConfig())
	r.Skip(3)
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())
}

func TestUndefinedAddress(t *testing.T) {
	r := NewReader(&Buffer{}, Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 8})
	assert.True(t, r.IsUndefinedOffset(0xFFFFFFFF))
	assert.False(t, r.IsUndefinedOffset(0xFFFFFFFFFFFFFFFF))
	assert.True(t, r.IsUndefinedLength(0xFFFFFFFFFFFFFFFF))

	w := NewWriter(&Buffer{}, DefaultConfig())
	assert.Equal(t, ^uint64(0), w.UndefinedOffset())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{OffsetSize: 3, LengthSize: 8}.Validate(), ErrInvalidSize)
}
