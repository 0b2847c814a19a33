package superblock

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Versions 0 and 1 (written by h5py/PyTables with default settings):
//
//	version, free-space version, root entry version, reserved,
//	shared header version, offset size, length size, reserved,
//	group leaf K (2), group internal K (2), consistency flags (4),
//	[v1: indexed storage K (2), reserved (2)],
//	base, free-space, EOF, driver addresses,
//	root symbol table entry.
//
// The root entry is link name offset, object header address, cache
// type (4), reserved (4) and a 16-byte scratch pad that holds the
// B-tree and local heap addresses when the cache type is 1.
func readV0V1(r *binary.Reader, version uint8) (*Superblock, error) {
	r.Skip(1)
	fixed, err := r.ReadBytes(15)
	if err != nil {
		return nil, fmt.Errorf("reading superblock v%d: %w", version, err)
	}
	sb := &Superblock{
		Version:    version,
		OffsetSize: fixed[4],
		LengthSize: fixed[5],
	}
	cfg := sb.ReaderConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuperblock, err)
	}
	r = r.WithSizes(cfg.OffsetSize, cfg.LengthSize)
	// Version 1 adds the indexed storage B-tree K and 2 reserved bytes.
	if version == 1 {
		r.Skip(4)
	}

	var addrs [4]uint64
	for i := range addrs {
		if addrs[i], err = r.ReadOffset(); err != nil {
			return nil, fmt.Errorf("reading superblock addresses: %w", err)
		}
	}
	sb.BaseAddress, sb.EOFAddress = addrs[0], addrs[2]

	if _, err := r.ReadOffset(); err != nil { // link name offset
		return nil, err
	}
	if sb.RootGroupAddress, err = r.ReadOffset(); err != nil {
		return nil, fmt.Errorf("reading root entry: %w", err)
	}
	// Cache type 1 means the scratch pad holds the root symbol table.
	cacheType, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4)
	if cacheType == 1 {
		if sb.RootBTreeAddress, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootHeapAddress, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}
