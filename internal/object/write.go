package object

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// MinGroupChunkSize is the smallest chunk 0 h5py allocates for a group
// header. Groups are padded to it so other writers can add links in place.
const MinGroupChunkSize = 120

// Encode builds a version 2 object header holding msgs. When the messages
// take fewer than minChunk bytes the remainder is filled with a NIL
// message.
func Encode(msgs []message.Encoder, cfg binary.Config, minChunk int) ([]byte, error) {
	var body []byte
	for _, m := range msgs {
		data, err := m.Encode(cfg)
		if err != nil {
			return nil, fmt.Errorf("encoding message type 0x%02x: %w", uint16(m.Type()), err)
		}
		if len(data) > 0xFFFF {
			return nil, fmt.Errorf("%w: type 0x%02x needs %d bytes", ErrMessageTooLarge, uint16(m.Type()), len(data))
		}
		body = appendMessage(body, cfg, m.Type(), data)
	}
	if pad := minChunk - len(body); pad > 0 {
		// A NIL message needs its 4-byte prefix; short gaps round up.
		body = appendMessage(body, cfg, message.TypeNIL, make([]byte, max(pad-4, 0)))
	}

	width := sizeFieldBytes(uint64(len(body)))
	var flags uint8
	switch width {
	case 2:
		flags = 1
	case 4:
		flags = 2
	case 8:
		flags = 3
	}

	out := make([]byte, 0, 6+width+len(body)+4)
	out = append(out, SignatureV2...)
	out = append(out, 2, flags)
	out = appendUint(out, cfg, uint64(len(body)), width)
	out = append(out, body...)
	return appendUint(out, cfg, uint64(binary.Lookup3Checksum(out)), 4), nil
}

// Write encodes msgs at the writer position and returns the header size.
func Write(w *binary.Writer, msgs []message.Encoder, cfg binary.Config, minChunk int) (int64, error) {
	raw, err := Encode(msgs, cfg, minChunk)
	if err != nil {
		return 0, err
	}
	if err := w.WriteBytes(raw); err != nil {
		return 0, err
	}
	return int64(len(raw)), nil
}

// appendMessage appends a v2 message prefix and body.
func appendMessage(buf []byte, cfg binary.Config, typ message.Type, data []byte) []byte {
	buf = append(buf, uint8(typ))
	buf = appendUint(buf, cfg, uint64(len(data)), 2)
	buf = append(buf, 0)
	return append(buf, data...)
}

func appendUint(buf []byte, cfg binary.Config, v uint64, n int) []byte {
	b := make([]byte, n)
	binary.EncodeUint(cfg.ByteOrder, b, v)
	return append(buf, b...)
}

// sizeFieldBytes is the smallest chunk-size field that holds n.
func sizeFieldBytes(n uint64) int {
	switch {
	case n <= 0xFF:
		return 1
	case n <= 0xFFFF:
		return 2
	case n <= 0xFFFFFFFF:
		return 4
	}
	return 8
}

// NewGroupHeader returns the messages of a compact group linking to
// each of links.
func NewGroupHeader(links ...*message.Link) []message.Encoder {
	msgs := []message.Encoder{&message.LinkInfo{}, &message.GroupInfo{}}
	for _, l := range links {
		msgs = append(msgs, l)
	}
	return msgs
}

// DatasetMessages are the pieces of a dataset header. Pipeline is only
// set for filtered chunked storage.
type DatasetMessages struct {
	Space      *message.Dataspace
	Datatype   *message.Datatype
	Fill       *message.FillValue
	Layout     *message.DataLayout
	Pipeline   *message.FilterPipeline
	Attributes []*message.Attribute
}

// NewDatasetHeader orders the dataset messages the way HDF5 does.
func NewDatasetHeader(d DatasetMessages) []message.Encoder {
	msgs := []message.Encoder{d.Space, d.Datatype}
	if d.Fill != nil {
		msgs = append(msgs, d.Fill)
	}
	msgs = append(msgs, d.Layout)
	if d.Pipeline != nil && len(d.Pipeline.Filters) > 0 {
		msgs = append(msgs, d.Pipeline)
	}
	for _, a := range d.Attributes {
		msgs = append(msgs, a)
	}
	return msgs
}
