package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrUnsupported = errors.New("unsupported filter")
	ErrChecksum    = errors.New("filter checksum mismatch")
	ErrCorrupt     = errors.New("corrupt filtered chunk")
)

// Filter transforms one chunk.
type Filter interface {
	ID() uint16
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

// registry maps filter ids to constructors taking the client data.
var registry = map[uint16]func(cd []uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(param(cd, 0, 6)) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(param(cd, 0, 1)) },
	message.FilterFletcher32: func([]uint32) Filter { return Fletcher32{} },
	message.FilterLZ4:        func(cd []uint32) Filter { return NewLZ4(param(cd, 0, 0)) },
	message.FilterZstd:       func(cd []uint32) Filter { return NewZstd(param(cd, 0, 3)) },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	message.FilterLZ4:         "lz4",
	message.FilterZstd:        "zstd",
}

// Name returns the conventional name of filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New builds the filter described by info. It returns nil without error
// for optional filters that are not available.
func New(info message.FilterInfo) (Filter, error) {
	ctor, ok := registry[info.ID]
	if !ok {
		if info.Optional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, Name(info.ID), info.ID)
	}
	return ctor(info.ClientData), nil
}

func param(cd []uint32, i int, def int) int {
	if i < len(cd) && cd[i] > 0 {
		return int(cd[i])
	}
	return def
}
