package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Version 2 prefix: "OHDR", version, flags, [4 timestamps if bit 5],
// [attribute phase change values if bit 4], chunk 0 size (1 << flags&3
// bytes). Messages follow, then a lookup3 checksum of everything before
// it. Each message: type (1), size (2), flags (1), [creation order (2)
// if bit 2].
func readV2(r *binary.Reader, address uint64) (*Header, error) {
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&0x20 != 0 {
		r.Skip(16)
	}
	if flags&0x10 != 0 {
		r.Skip(4)
	}
	size, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}

	h := &Header{Version: 2, Address: address, Flags: flags, RefCount: 1}
	order := flags&0x04 != 0
	prefix := uint64(r.Pos()) - address

	// The first block is checksummed from the signature; continuation
	// blocks from their own signature.
	first := block{offset: address, length: prefix + size + 4}
	err = h.collect(first, func(b block) ([]message.Message, error) {
		skip := uint64(4)
		if b.offset == address {
			skip = prefix
		}
		return readV2Block(r, b, skip, order)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// readV2Block verifies and decodes one v2 block. skip is the bytes
// before the first message; order says creation order is stored.
func readV2Block(r *binary.Reader, b block, skip uint64, order bool) ([]message.Message, error) {
	if b.length < skip+4 {
		return nil, fmt.Errorf("%w: block of %d bytes", ErrInvalidHeader, b.length)
	}
	raw, err := r.At(int64(b.offset)).ReadBytes(int(b.length))
	if err != nil {
		return nil, err
	}
	if skip == 4 && !bytes.Equal(raw[:4], SignatureContinuation) {
		return nil, fmt.Errorf("%w: bad continuation signature %q", ErrInvalidHeader, raw[:4])
	}
	// The last four bytes checksum everything before them.
	body := len(raw) - 4
	want := uint32(binary.DecodeUint(r.ByteOrder(), raw[body:]))
	if got := binary.Lookup3Checksum(raw[:body]); got != want {
		return nil, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, want, got)
	}

	// Message prefix: type, size (2), flags, and the creation order when tracked.
	prefix := 4
	if order {
		prefix = 6
	}
	var out []message.Message
	cfg := r.Config()
	for pos := int(skip); pos+prefix <= body; {
		typ := message.Type(raw[pos])
		size := int(binary.DecodeUint(r.ByteOrder(), raw[pos+1:pos+3]))
		flags := raw[pos+3]
		pos += prefix
		if pos+size > body {
			return nil, fmt.Errorf("%w: message overruns block", ErrInvalidHeader)
		}
		data := raw[pos : pos+size]
		pos += size

		// NIL messages are padding.
		if typ == message.TypeNIL {
			continue
		}
		m, err := parseMessage(typ, flags, data, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
