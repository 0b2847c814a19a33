package object

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Version 1 prefix: version, reserved, message count (2), reference
// count (4), header size (4), reserved (4). Each message: type (2),
// size (2), flags (1), reserved (3), body padded to 8 bytes.
func readV1(r *binary.Reader, address uint64) (*Header, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	// The message count is not needed: messages are read until the
	// blocks run out.
	r.Skip(3)
	refCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4) // reserved, aligns the first message to 8 bytes

	h := &Header{Version: 1, Address: address, RefCount: refCount}
	first := block{offset: uint64(r.Pos()), length: uint64(size)}
	err = h.collect(first, func(b block) ([]message.Message, error) {
		return readV1Block(r.At(int64(b.offset)), b)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// readV1Block decodes the 8-byte aligned messages of one v1 block.
func readV1Block(r *binary.Reader, b block) ([]message.Message, error) {
	var out []message.Message
	end := int64(b.offset + b.length)
	// Fewer than 8 bytes left is padding.
	for r.Pos()+8 <= end {
		typ, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		r.Skip(3)
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		r.Skip(int64((8 - int(size)%8) % 8))

		if message.Type(typ) == message.TypeNIL {
			continue
		}
		m, err := parseMessage(message.Type(typ), flags, data, r.Config())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
