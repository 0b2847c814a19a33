package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	ErrUnsupported = errors.New("unsupported datatype")
	ErrShortData   = errors.New("element data too short")
)

// IsNumeric reports whether dt is an integer or float type that the
// converters handle.
func IsNumeric(dt *message.Datatype) bool {
	switch dt.Class {
	case message.ClassFixedPoint:
		return dt.Size == 1 || dt.Size == 2 || dt.Size == 4 || dt.Size == 8
	case message.ClassFloatPoint:
		return dt.Size == 4 || dt.Size == 8
	}
	return false
}

// order is the byte order the datatype declares.
func order(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ElementSize is the stored width of one element of dt.
func ElementSize(dt *message.Datatype, offsetSize int) int {
	if dt.Class == message.ClassVarLen {
		return 4 + offsetSize + 4
	}
	return int(dt.Size)
}

func checkLen(data []byte, n uint64, size int) error {
	if need := n * uint64(size); uint64(len(data)) < need {
		return fmt.Errorf("%w: %d bytes for %d elements of %d bytes", ErrShortData, len(data), n, size)
	}
	return nil
}
