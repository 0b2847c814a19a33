package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var (
	ErrChecksum = errors.New("chunk index checksum mismatch")

	fixedArrayHeader = []byte("FAHD")
	fixedArrayBlock  = []byte("FADB")
)

// Fixed array client ids.
const (
	clientChunks         = 0
	clientFilteredChunks = 1
)

// defaultPageBits matches the page size HDF5 picks for new fixed arrays.
const defaultPageBits = 10

// Header: "FAHD", version, client id, entry size, page bits, entry count
// (length), data block address (offset), checksum.
// Data block: "FADB", version, client id, header address, [page init
// bitmap when paged], checksum, then either the entries and a checksum
// or one page of entries plus checksum per page.
func readFixedArray(r *binary.Reader, addr uint64, chunkBytes uint64) (arrayIndex, error) {
	cfg := r.Config()
	hsize := 8 + cfg.LengthSize + cfg.OffsetSize
	hdr, err := readChecked(r, addr, hsize, fixedArrayHeader)
	if err != nil {
		return nil, err
	}
	client, entrySize, pageBits := hdr[5], int(hdr[6]), hdr[7]
	n := binary.DecodeUint(cfg.ByteOrder, hdr[8:8+cfg.LengthSize])
	blockAddr := binary.DecodeUint(cfg.ByteOrder, hdr[8+cfg.LengthSize:])

	dec := entryDecoder{cfg: cfg, filtered: client == clientFilteredChunks, size: entrySize, chunkBytes: chunkBytes}
	if err := dec.check(); err != nil {
		return nil, err
	}

	idx := make(arrayIndex, n)
	prefix := 6 + cfg.OffsetSize
	pageN := uint64(1) << pageBits
	// Small arrays keep every entry in the data block itself.
	if n <= pageN {
		body, err := readChecked(r, blockAddr, prefix+int(n)*entrySize, fixedArrayBlock)
		if err != nil {
			return nil, err
		}
		dec.decode(idx, body[prefix:])
		return idx, nil
	}

	// Paged: a bitmap of initialized pages, then fixed-size pages that each end in a checksum.
	npages := (n + pageN - 1) / pageN
	bitmapLen := int((npages + 7) / 8)
	head, err := readChecked(r, blockAddr, prefix+bitmapLen, fixedArrayBlock)
	if err != nil {
		return nil, err
	}
	bitmap := head[prefix:]
	pageAddr := blockAddr + uint64(prefix+bitmapLen+4)
	pageLen := pageN*uint64(entrySize) + 4
	for p := uint64(0); p < npages; p++ {
		// Uninitialized pages hold no chunks.
		if bitmap[p/8]&(0x80>>(p%8)) == 0 {
			continue
		}
		count := min(pageN, n-p*pageN)
		page, err := readChecked(r, pageAddr+p*pageLen, int(count)*entrySize, nil)
		if err != nil {
			return nil, fmt.Errorf("fixed array page %d: %w", p, err)
		}
		dec.decode(idx[p*pageN:p*pageN+count], page)
	}
	return idx, nil
}

// readChecked reads n bytes at addr followed by their lookup3 checksum,
// verifying the leading signature when sig is non-nil.
func readChecked(r *binary.Reader, addr uint64, n int, sig []byte) ([]byte, error) {
	raw, err := r.At(int64(addr)).ReadBytes(n + 4)
	if err != nil {
		return nil, err
	}
	if sig != nil && !bytes.Equal(raw[:len(sig)], sig) {
		return nil, fmt.Errorf("%w: signature %q, want %q", ErrUnsupported, raw[:len(sig)], sig)
	}
	if sig != nil && raw[len(sig)] != 0 {
		return nil, fmt.Errorf("%w: %s version %d", ErrUnsupported, sig, raw[len(sig)])
	}
	want := uint32(binary.DecodeUint(r.ByteOrder(), raw[n:]))
	if got := binary.Lookup3Checksum(raw[:n]); got != want {
		return nil, fmt.Errorf("%w at %d", ErrChecksum, addr)
	}
	return raw[:n], nil
}

// entryDecoder decodes fixed array entries: a chunk address, then for
// filtered chunks a little-endian size and a 4-byte filter mask.
type entryDecoder struct {
	cfg        binary.Config
	filtered   bool
	size       int
	chunkBytes uint64
}

func (e entryDecoder) sizeWidth() int { return e.size - e.cfg.OffsetSize - 4 }

// check rejects entry sizes other than the ones this reader decodes.
func (e entryDecoder) check() error {
	switch {
	case !e.filtered && e.size != e.cfg.OffsetSize:
		return fmt.Errorf("%w: %d-byte fixed array entries", ErrUnsupported, e.size)
	case e.filtered && (e.sizeWidth() < 1 || e.sizeWidth() > 8):
		return fmt.Errorf("%w: %d-byte filtered fixed array entries", ErrUnsupported, e.size)
	}
	return nil
}

// decode fills dst from packed entries.
func (e entryDecoder) decode(dst arrayIndex, raw []byte) {
	order := e.cfg.ByteOrder
	for i := range dst {
		b := raw[i*e.size : (i+1)*e.size]
		addr := binary.DecodeUint(order, b[:e.cfg.OffsetSize])
		if addr == 0 || addr == allOnes(e.cfg.OffsetSize) {
			continue
		}
		ref := chunkRef{addr: addr, size: e.chunkBytes}
		if e.filtered {
			w := e.sizeWidth()
			ref.size = binary.DecodeUint(order, b[e.cfg.OffsetSize:e.cfg.OffsetSize+w])
			ref.mask = uint32(binary.DecodeUint(order, b[e.cfg.OffsetSize+w:]))
		}
		dst[i] = ref
	}
}

func allOnes(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*width) - 1
}

// filteredSizeWidth is the byte width HDF5 gives the stored size of a
// filtered chunk whose raw size is chunkBytes.
func filteredSizeWidth(chunkBytes uint64) int {
	return min(1+(bits.Len64(chunkBytes)-1+8)/8, 8)
}

// writeFixedArray writes an unpaged fixed array indexing refs and returns
// the header address and the page bits recorded in the layout message.
func writeFixedArray(w io.WriterAt, a Allocator, cfg binary.Config, refs []chunkRef, filtered bool, chunkBytes uint64) (uint64, uint8, error) {
	n := uint64(len(refs))
	// Page bits at least cover n, so the array is never paged.
	pageBits := uint8(max(defaultPageBits, bits.Len64(n)))

	client, entrySize := uint8(clientChunks), cfg.OffsetSize
	width := 0
	if filtered {
		width = filteredSizeWidth(chunkBytes)
		client, entrySize = clientFilteredChunks, cfg.OffsetSize+width+4
	}

	hsize := 8 + cfg.LengthSize + cfg.OffsetSize + 4
	bsize := 6 + cfg.OffsetSize + len(refs)*entrySize + 4
	hdrAddr := a.Alloc(uint64(hsize), "fixed array header")
	blockAddr := a.Alloc(uint64(bsize), "fixed array data block")

	put := func(buf []byte, v uint64, n int) []byte {
		b := make([]byte, n)
		binary.EncodeUint(cfg.ByteOrder, b, v)
		return append(buf, b...)
	}
	checksum := func(buf []byte) []byte { return put(buf, uint64(binary.Lookup3Checksum(buf)), 4) }

	hdr := append([]byte(nil), fixedArrayHeader...)
	hdr = append(hdr, 0, client, uint8(entrySize), pageBits)
	hdr = put(hdr, n, cfg.LengthSize)
	hdr = put(hdr, blockAddr, cfg.OffsetSize)
	hdr = checksum(hdr)

	blk := append([]byte(nil), fixedArrayBlock...)
	blk = append(blk, 0, client)
	blk = put(blk, hdrAddr, cfg.OffsetSize)
	for _, ref := range refs {
		blk = put(blk, ref.addr, cfg.OffsetSize)
		if filtered {
			blk = put(blk, ref.size, width)
			blk = put(blk, uint64(ref.mask), 4)
		}
	}
	blk = checksum(blk)

	if _, err := w.WriteAt(hdr, int64(hdrAddr)); err != nil {
		return 0, 0, err
	}
	if _, err := w.WriteAt(blk, int64(blockAddr)); err != nil {
		return 0, 0, err
	}
	return hdrAddr, pageBits, nil
}
