package filter

import (
	"encoding/binary"
	"fmt"

	gbinary "github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Fletcher32 appends a checksum on write and strips it after checking on
// read.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

// Encode appends the checksum of in as a 4-byte trailer.
func (Fletcher32) Encode(in []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(append([]byte(nil), in...), gbinary.Fletcher32(in)), nil
}

// Decode accepts the checksum in either half-word order.
func (Fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("%w: %d-byte chunk has no checksum", ErrCorrupt, len(in))
	}
	data := in[:len(in)-4]
	stored := binary.LittleEndian.Uint32(in[len(in)-4:])
	sum := gbinary.Fletcher32(data)
	// Files from HDF5 1.6 store the checksum with its 16-bit halves
	// byte-swapped.
	swapped := sum&0x00FF00FF<<8 | sum&0xFF00FF00>>8
	if stored != sum && stored != swapped {
		return nil, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksum, stored, sum)
	}
	return data, nil
}
