package btree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var (
	ErrInvalidSignature = errors.New("invalid B-tree signature")
	ErrWrongNodeType    = errors.New("unexpected B-tree node type")
	ErrTooDeep          = errors.New("B-tree too deep")
)

var treeSignature = []byte("TREE")

// Node types and the depth past which a tree is treated as corrupt.
const (
	nodeGroup uint8 = 0
	nodeChunk uint8 = 1

	maxDepth = 64
)

// walk visits every child pointer of the leaves below the node at
// address. keySize is the byte width of one key; visit receives the key
// preceding each child together with the child address.
func walk(r *binary.Reader, address uint64, typ uint8, keySize int, visit func(key []byte, child uint64) error) error {
	return walkNode(r, address, typ, keySize, -1, visit)
}

// walkNode reads one "TREE" node: type, level, entries used (2), left and
// right sibling addresses, then keys and children alternating. wantLevel
// is -1 at the root.
func walkNode(r *binary.Reader, address uint64, typ uint8, keySize, wantLevel int, visit func([]byte, uint64) error) error {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("B-tree node at %d: %w", address, err)
	}
	if !bytes.Equal(sig, treeSignature) {
		return fmt.Errorf("%w: %q at %d", ErrInvalidSignature, sig, address)
	}
	head, err := nr.ReadBytes(4)
	if err != nil {
		return err
	}
	if head[0] != typ {
		return fmt.Errorf("%w: %d, want %d", ErrWrongNodeType, head[0], typ)
	}
	// Children sit exactly one level lower; anything else is a loop or corruption.
	level := int(head[1])
	if level > maxDepth || (wantLevel >= 0 && level != wantLevel) {
		return fmt.Errorf("%w: level %d at %d", ErrTooDeep, level, address)
	}
	used := int(binary.DecodeUint(nr.ByteOrder(), head[2:4]))
	nr.Skip(int64(2 * nr.OffsetSize())) // siblings

	// Keys and child pointers alternate; the trailing key is not needed.
	for i := 0; i < used; i++ {
		key, err := nr.ReadBytes(keySize)
		if err != nil {
			return err
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if level > 0 {
			err = walkNode(r, child, typ, keySize, level-1, visit)
		} else {
			err = visit(key, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
