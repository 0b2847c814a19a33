package btree

import (
	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Chunk is one stored chunk of a dataset.
type Chunk struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset     []uint64
	Size       uint32
	FilterMask uint32
	Address    uint64
}

// ReadChunks lists the chunks indexed by the B-tree at address for a
// dataset of the given rank.
//
// Each key holds the chunk size (4), filter mask (4) and rank+1 element
// offsets of 8 bytes; the extra offset is always zero.
func ReadChunks(r *binary.Reader, address uint64, rank int) ([]Chunk, error) {
	keySize := 8 + 8*(rank+1)
	order := r.ByteOrder()
	var chunks []Chunk
	err := walk(r, address, nodeChunk, keySize, func(key []byte, child uint64) error {
		c := Chunk{
			Size:       uint32(binary.DecodeUint(order, key[0:4])),
			FilterMask: uint32(binary.DecodeUint(order, key[4:8])),
			Address:    child,
			Offset:     make([]uint64, rank),
		}
		for d := range c.Offset {
			c.Offset[d] = binary.DecodeUint(order, key[8+8*d:16+8*d])
		}
		if !r.IsUndefinedOffset(child) {
			chunks = append(chunks, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
