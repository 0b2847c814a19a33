package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
)

var globalSignature = []byte("GCOL")

// ID references one global heap object: the collection address followed
// by a 4-byte object index.
type ID struct {
	Collection uint64
	Index      uint32
}

// IsNull reports the reference an unset variable-length element carries.
func (id ID) IsNull() bool { return id.Collection == 0 }

// Collection is a global heap collection.
type Collection struct {
	Address uint64
	objects map[uint32][]byte
}

// ReadCollection reads the collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", address, err)
	}
	if !bytes.Equal(sig, globalSignature) {
		return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSignature, sig, address)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", ErrUnsupportedVersion, version)
	}
	// reserved
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	// Objects are packed back to back, each padded to 8 bytes.
	c := &Collection{Address: address, objects: map[uint32][]byte{}}
	end := int64(address + size)
	objHeader := int64(8 + r.LengthSize())
	for hr.Pos()+objHeader <= end {
		index, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if index == 0 { // free space
			break
		}
		hr.Skip(6) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil {
			return nil, err
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("global heap object %d: %w", index, err)
		}
		hr.Skip(int64((8 - n%8) % 8))
		c.objects[uint32(index)] = data
	}
	return c, nil
}

// Object returns the bytes of object index.
func (c *Collection) Object(index uint32) ([]byte, error) {
	data, ok := c.objects[index]
	if !ok {
		return nil, fmt.Errorf("%w: object %d in collection %d", ErrNotFound, index, c.Address)
	}
	return data, nil
}

// DecodeID reads a heap ID from the start of b.
func DecodeID(b []byte, cfg binary.Config) (ID, error) {
	if len(b) < cfg.OffsetSize+4 {
		return ID{}, fmt.Errorf("global heap id: need %d bytes, have %d", cfg.OffsetSize+4, len(b))
	}
	return ID{
		Collection: binary.DecodeUint(cfg.ByteOrder, b[:cfg.OffsetSize]),
		Index:      uint32(binary.DecodeUint(cfg.ByteOrder, b[cfg.OffsetSize:cfg.OffsetSize+4])),
	}, nil
}

// Cache reads each collection once. A dataset of variable-length strings
// usually packs thousands of elements into a few collections.
type Cache struct {
	r           *binary.Reader
	collections map[uint64]*Collection
}

// NewCache returns an empty cache reading collections through r.
func NewCache(r *binary.Reader) *Cache {
	return &Cache{r: r, collections: map[uint64]*Collection{}}
}

// Object resolves id. A null id yields nil bytes.
func (c *Cache) Object(id ID) ([]byte, error) {
	if id.IsNull() {
		return nil, nil
	}
	col, ok := c.collections[id.Collection]
	if !ok {
		var err error
		if col, err = ReadCollection(c.r, id.Collection); err != nil {
			return nil, err
		}
		c.collections[id.Collection] = col
	}
	return col.Object(id.Index)
}
