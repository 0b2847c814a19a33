// Package superblock locates and decodes the HDF5 superblock, the fixed
// record that tells a reader how wide file addresses are and where the
// root group lives.
package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Signature opens every HDF5 superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// The superblock may sit at 0 or at any power-of-two offset from 512 on
// when a user block precedes it. GCTX files in the wild use 0.
var searchOffsets = []int64{0, 512, 1024, 2048, 4096}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// Superblock holds the fields the rest of the reader needs.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Version 0/1 files cache the root group's symbol table in the
	// superblock's root entry scratch pad.
	RootBTreeAddress uint64
	RootHeapAddress  uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read searches r for the signature and decodes the superblock after it.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, 9)
	for _, off := range searchOffsets {
		if _, err := r.ReadAt(head, off); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(head[:8], Signature) {
			continue
		}

		var (
			sb  *Superblock
			err error
		)
		cur := binary.NewReader(r, binary.DefaultConfig()).At(off + 8)
		switch v := head[8]; v {
		case 0, 1:
			sb, err = readV0V1(cur, v)
		case 2, 3:
			sb, err = readV2V3(cur, off)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, err
		}
		sb.FileOffset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the address widths declared by this superblock.
func (sb *Superblock) ReaderConfig() binary.Config {
	cfg := binary.DefaultConfig()
	cfg.OffsetSize = int(sb.OffsetSize)
	cfg.LengthSize = int(sb.LengthSize)
	return cfg
}
