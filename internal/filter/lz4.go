package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// defaultLZ4Block is the block size the HDF5 LZ4 plugin uses when the
// client data does not set one.
const defaultLZ4Block = 1 << 30

// maxLZ4Ratio bounds how far an LZ4 block can expand when decoded.
const maxLZ4Ratio = 255

// LZ4 is the HDF5 LZ4 plugin format: an 8-byte big-endian total size and
// a 4-byte block size, then per block a 4-byte big-endian compressed size
// and the block. A block whose compressed size equals its raw size is
// stored uncompressed.
type LZ4 struct {
	block int
	// limit caps the decoded size when non-zero.
	limit uint64
}

// NewLZ4 returns an LZ4 filter splitting input into blockSize blocks.
// Zero or less selects the plugin default.
func NewLZ4(blockSize int) *LZ4 {
	if blockSize <= 0 {
		blockSize = defaultLZ4Block
	}
	return &LZ4{block: blockSize}
}

func (f *LZ4) ID() uint16 { return message.FilterLZ4 }

func (f *LZ4) limitOutput(n uint64) { f.limit = n }

// Encode splits in into blocks and writes the HDF5 lz4 framing: total
// size, block size, then each block prefixed by its compressed length.
func (f *LZ4) Encode(in []byte) ([]byte, error) {
	block := min(f.block, max(len(in), 1))
	out := binary.BigEndian.AppendUint64(nil, uint64(len(in)))
	out = binary.BigEndian.AppendUint32(out, uint32(block))

	buf := make([]byte, lz4.CompressBlockBound(block))
	for start := 0; start < len(in); start += block {
		raw := in[start:min(start+block, len(in))]
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(raw) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(raw)))
			out = append(out, raw...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, buf[:n]...)
	}
	return out, nil
}

// Decode rejects a header total larger than the limit set by the
// pipeline, or larger than the input could expand to.
func (f *LZ4) Decode(in []byte) ([]byte, error) {
	if len(in) < 12 {
		return nil, fmt.Errorf("%w: lz4 header", ErrCorrupt)
	}
	total := binary.BigEndian.Uint64(in[:8])
	block := uint64(binary.BigEndian.Uint32(in[8:12]))
	if block == 0 && total > 0 {
		return nil, fmt.Errorf("%w: zero lz4 block size", ErrCorrupt)
	}
	in = in[12:]

	// The header total comes from the file; check it before allocating.
	if f.limit > 0 && total > f.limit {
		return nil, fmt.Errorf("%w: lz4 header claims %d bytes, chunk holds %d", ErrCorrupt, total, f.limit)
	}
	if total > maxLZ4Ratio*uint64(len(in)) {
		return nil, fmt.Errorf("%w: lz4 header claims %d bytes from %d compressed", ErrCorrupt, total, len(in))
	}
	out := make([]byte, total)
	for pos := uint64(0); pos < total; {
		if len(in) < 4 {
			return nil, fmt.Errorf("%w: lz4 block header at %d", ErrCorrupt, pos)
		}
		size := uint64(binary.BigEndian.Uint32(in[:4]))
		in = in[4:]
		want := min(block, total-pos)
		if size > uint64(len(in)) {
			return nil, fmt.Errorf("%w: lz4 block of %d bytes overruns input", ErrCorrupt, size)
		}
		if size == want {
			copy(out[pos:], in[:size])
		} else {
			n, err := lz4.UncompressBlock(in[:size], out[pos:pos+want])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			if uint64(n) != want {
				return nil, fmt.Errorf("%w: lz4 block decoded to %d bytes, want %d", ErrCorrupt, n, want)
			}
		}
		in = in[size:]
		pos += want
	}
	return out, nil
}
