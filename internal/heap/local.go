package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var (
	ErrInvalidSignature   = errors.New("invalid heap signature")
	ErrUnsupportedVersion = errors.New("unsupported heap version")
	ErrNotFound           = errors.New("heap object not found")
)

var localSignature = []byte("HEAP")

// Local is a local heap. Only the data segment is kept.
type Local struct {
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap whose header is at address.
//
// Header: "HEAP", version 0, reserved (3), data segment size (length),
// free list head offset (length), data segment address (offset).
func ReadLocal(r *binary.Reader, address uint64) (*Local, error) {
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", address, err)
	}
	if !bytes.Equal(sig, localSignature) {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, sig, address)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrUnsupportedVersion, version)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	if _, err := hr.ReadLength(); err != nil { // free list head
		return nil, err
	}
	dataAddr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}

	// The data segment usually follows the header but need not.
	data, err := r.At(int64(dataAddr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("local heap data segment: %w", err)
	}
	return &Local{DataAddress: dataAddr, data: data}, nil
}

// String returns the NUL-terminated string at offset.
func (h *Local) String(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: offset %d beyond %d-byte local heap", ErrNotFound, offset, len(h.data))
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s), nil
}
