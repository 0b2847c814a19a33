package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var cfg = binary.DefaultConfig()

func readerFor(b []byte) *binary.Reader {
	buf := &binary.Buffer{}
	_, _ = buf.WriteAt(b, 0)
	return binary.NewReader(buf, cfg)
}

func TestDatasetHeaderRoundTrip(t *testing.T) {
	msgs := NewDatasetHeader(DatasetMessages{
		Space:      message.NewSimpleDataspace(3, 2),
		Datatype:   message.NewFloat(4),
		Fill:       message.NewFillValue(message.AllocLate),
		Layout:     message.NewContiguousLayout(0x800, 24),
		Attributes: []*message.Attribute{message.NewStringAttribute("note", "x")},
	})
	raw, err := Encode(msgs, cfg, 0)
	require.NoError(t, err)

	h, err := Read(readerFor(raw), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), h.Version)
	assert.True(t, h.IsDataset())
	assert.False(t, h.IsGroup())
	assert.Equal(t, []uint64{3, 2}, h.Dataspace().Dimensions)
	assert.Equal(t, message.ClassFloatPoint, h.Datatype().Class)
	assert.Equal(t, uint64(0x800), h.DataLayout().Address)
	assert.Nil(t, h.FilterPipeline())
	require.NotNil(t, h.Attribute("note"))
	assert.Nil(t, h.Attribute("missing"))
}

func TestGroupHeaderPadding(t *testing.T) {
	msgs := NewGroupHeader(message.NewHardLink("data", 0x100), message.NewHardLink("meta", 0x200))
	raw, err := Encode(msgs, cfg, MinGroupChunkSize)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 4+2+1+MinGroupChunkSize+4)

	h, err := Read(readerFor(raw), 0)
	require.NoError(t, err)
	assert.True(t, h.IsGroup())
	links := h.Links()
	require.Len(t, links, 2)
	assert.Equal(t, "data", links[0].Name)
	assert.Equal(t, uint64(0x200), links[1].Address)
}

func TestHeaderAtOffset(t *testing.T) {
	raw, err := Encode(NewGroupHeader(), cfg, 0)
	require.NoError(t, err)
	file := append(make([]byte, 64), raw...)

	h, err := Read(readerFor(file), 64)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), h.Address)
	assert.NotNil(t, h.Message(message.TypeLinkInfo))
}

func TestChecksumMismatch(t *testing.T) {
	raw, err := Encode(NewGroupHeader(), cfg, 0)
	require.NoError(t, err)
	raw[8] ^= 0xFF

	_, err = Read(readerFor(raw), 0)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestInvalidHeader(t *testing.T) {
	_, err := Read(readerFor([]byte{99, 0, 0, 0, 0, 0, 0, 0}), 0)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestMessageTooLarge(t *testing.T) {
	attr := message.NewStringAttribute("big", string(make([]byte, 70000)))
	_, err := Encode([]message.Encoder{attr}, cfg, 0)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

// v1Message frames one message body the way version 1 headers do.
func v1Message(typ message.Type, body []byte) []byte {
	out := []byte{byte(typ), byte(typ >> 8), byte(len(body)), byte(len(body) >> 8), 0, 0, 0, 0}
	out = append(out, body...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

func TestReadV1WithContinuation(t *testing.T) {
	space, err := message.NewSimpleDataspace(5).Encode(cfg)
	require.NoError(t, err)
	dtype, err := message.NewInteger(4, true).Encode(cfg)
	require.NoError(t, err)

	// The continuation block sits at offset 128, after the header.
	second := v1Message(message.TypeDatatype, dtype)
	cont := make([]byte, 16)
	binary.EncodeUint(cfg.ByteOrder, cont[:8], 128)
	binary.EncodeUint(cfg.ByteOrder, cont[8:], uint64(len(second)))
	msgs := append(v1Message(message.TypeDataspace, space), v1Message(message.TypeContinuation, cont)...)

	head := []byte{1, 0, 3, 0, 1, 0, 0, 0, byte(len(msgs)), 0, 0, 0, 0, 0, 0, 0}
	file := append(head, msgs...)
	file = append(file, make([]byte, 128-len(file))...)
	file = append(file, second...)

	h, err := Read(readerFor(file), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, uint32(1), h.RefCount)
	assert.Equal(t, []uint64{5}, h.Dataspace().Dimensions)
	require.NotNil(t, h.Datatype())
	assert.True(t, h.Datatype().Signed)
	assert.Nil(t, h.Message(message.TypeContinuation))
}
