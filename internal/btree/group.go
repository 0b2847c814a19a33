package btree

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
)

var symbolNodeSignature = []byte("SNOD")

// Symbol table entry cache types.
const (
	cacheNone    uint32 = 0
	cacheGroup   uint32 = 1
	cacheSymlink uint32 = 2
)

// Entry is one member of a symbol-table group.
type Entry struct {
	Name    string
	Address uint64

	// Soft links have no address; Target holds the linked path.
	Soft   bool
	Target string
}

// ReadGroup lists the members of the group indexed by the B-tree at
// address, whose names live in names.
func ReadGroup(r *binary.Reader, address uint64, names *heap.Local) ([]Entry, error) {
	var entries []Entry
	err := walk(r, address, nodeGroup, r.LengthSize(), func(_ []byte, snod uint64) error {
		got, err := readSymbolNode(r, snod, names)
		entries = append(entries, got...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// readSymbolNode reads the entries of one "SNOD" node.
func readSymbolNode(r *binary.Reader, address uint64, names *heap.Local) ([]Entry, error) {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, symbolNodeSignature) {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, sig, address)
	}
	head, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if head[0] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version %d", head[0])
	}
	n := int(binary.DecodeUint(nr.ByteOrder(), head[2:4]))

	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		e, err := readEntry(nr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol table entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Entry layout: name offset, object header address, cache type (4),
// reserved (4), scratch pad (16).
func readEntry(r *binary.Reader, names *heap.Local) (Entry, error) {
	nameOff, err := r.ReadOffset()
	if err != nil {
		return Entry{}, err
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return Entry{}, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return Entry{}, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return Entry{}, err
	}

	name, err := names.String(nameOff)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Name: name, Address: addr}
	if cache == cacheSymlink {
		e.Soft = true
		e.Address = 0
		if e.Target, err = names.String(binary.DecodeUint(r.ByteOrder(), scratch[:4])); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}
