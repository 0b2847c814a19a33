package superblock

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

// Versions 2 and 3 share one layout:
//
//	signature, version, offset size, length size, flags,
//	base, extension, EOF, root object header addresses,
//	lookup3 checksum of everything before it.
func readV2V3(r *binary.Reader, start int64) (*Superblock, error) {
	fixed, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:    fixed[0],
		OffsetSize: fixed[1],
		LengthSize: fixed[2],
		Flags:      fixed[3],
	}
	cfg := sb.ReaderConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuperblock, err)
	}
	r = r.WithSizes(cfg.OffsetSize, cfg.LengthSize)

	// Base, extension, end of file and root object header addresses.
	for _, dst := range []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress} {
		if *dst, err = r.ReadOffset(); err != nil {
			return nil, fmt.Errorf("reading superblock addresses: %w", err)
		}
	}

	// The checksum covers everything from the signature up to here.
	end := r.Pos()
	stored, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := r.At(start).ReadBytes(int(end - start))
	if err != nil {
		return nil, err
	}
	if binary.Lookup3Checksum(body) != stored {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}
	return sb, nil
}

// New returns a version 2 superblock with 8-byte addresses. Version 2 is
// the oldest layout that can point at a v2 object header root group.
func New(rootAddr, eofAddr uint64) *Superblock {
	return &Superblock{
		Version:          2,
		OffsetSize:       8,
		LengthSize:       8,
		RootGroupAddress: rootAddr,
		EOFAddress:       eofAddr,
	}
}

// Size is the encoded size of a v2/v3 superblock.
func (sb *Superblock) Size() int {
	o := int(sb.OffsetSize)
	if o == 0 {
		o = 8
	}
	return len(Signature) + 4 + 4*o + 4
}

// Write encodes sb as a v2/v3 superblock at w's position.
func (sb *Superblock) Write(w *binary.Writer) error {
	var buf binary.Buffer
	bw := binary.NewWriter(&buf, sb.ReaderConfig())

	version := max(sb.Version, 2)
	ext := sb.ExtensionAddress
	if ext == 0 {
		ext = bw.UndefinedOffset()
	}
	_ = bw.WriteBytes(Signature)
	_ = bw.WriteBytes([]byte{version, sb.OffsetSize, sb.LengthSize, sb.Flags})
	for _, addr := range []uint64{sb.BaseAddress, ext, sb.EOFAddress, sb.RootGroupAddress} {
		_ = bw.WriteOffset(addr)
	}
	_ = bw.WriteUint32(binary.Lookup3Checksum(buf.Bytes()))
	return w.WriteBytes(buf.Bytes())
}
