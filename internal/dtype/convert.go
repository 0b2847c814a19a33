package dtype

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Float64s converts n numeric elements to float64.
func Float64s(dt *message.Datatype, data []byte, n uint64) ([]float64, error) {
	if err := checkNumeric(dt, data, n); err != nil {
		return nil, err
	}
	size := int(dt.Size)
	out := make([]float64, n)
	for i := range out {
		out[i] = number(dt, data[i*size:(i+1)*size])
	}
	return out, nil
}

// Float32s converts n numeric elements to float32.
func Float32s(dt *message.Datatype, data []byte, n uint64) ([]float32, error) {
	if err := checkNumeric(dt, data, n); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	if dt.Class == message.ClassFloatPoint && dt.Size == 4 {
		bo := order(dt)
		for i := range out {
			out[i] = math.Float32frombits(bo.Uint32(data[i*4:]))
		}
		return out, nil
	}
	size := int(dt.Size)
	for i := range out {
		out[i] = float32(number(dt, data[i*size:(i+1)*size]))
	}
	return out, nil
}

func checkNumeric(dt *message.Datatype, data []byte, n uint64) error {
	if !IsNumeric(dt) {
		return fmt.Errorf("%w: %s of %d bytes is not numeric", ErrUnsupported, dt.Class, dt.Size)
	}
	return checkLen(data, n, int(dt.Size))
}

// number decodes one element of a numeric type.
func number(dt *message.Datatype, b []byte) float64 {
	switch {
	case dt.Class == message.ClassFloatPoint && len(b) == 4:
		return float64(math.Float32frombits(order(dt).Uint32(b)))
	case dt.Class == message.ClassFloatPoint:
		return math.Float64frombits(order(dt).Uint64(b))
	case dt.Signed:
		return float64(signed(dt, b))
	}
	return float64(binary.DecodeUint(order(dt), b))
}

// signed sign-extends a two's complement integer of len(b) bytes.
func signed(dt *message.Datatype, b []byte) int64 {
	shift := 64 - 8*uint(len(b))
	return int64(binary.DecodeUint(order(dt), b)<<shift) >> shift
}

// Strings converts n elements to text. Fixed strings lose their padding,
// variable-length strings are fetched through heap, and numeric elements
// are formatted: integers in decimal, floats in the shortest form that
// parses back to the same value.
func Strings(dt *message.Datatype, data []byte, n uint64, cfg binary.Config, gh *heap.Cache) ([]string, error) {
	switch {
	case dt.Class == message.ClassString:
		return fixedStrings(dt, data, n)
	case dt.Class == message.ClassVarLen && dt.VarLenString:
		return varLenStrings(data, n, cfg, gh)
	case IsNumeric(dt):
		return formatNumbers(dt, data, n)
	}
	return nil, fmt.Errorf("%w: cannot read %s as text", ErrUnsupported, dt.Class)
}

func fixedStrings(dt *message.Datatype, data []byte, n uint64) ([]string, error) {
	size := int(dt.Size)
	if err := checkLen(data, n, size); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		out[i] = TrimPadding(data[i*size:(i+1)*size], dt.Pad)
	}
	return out, nil
}

// TrimPadding cuts a fixed-length string at its first NUL and, for
// space-padded strings, drops trailing spaces.
func TrimPadding(b []byte, pad message.StringPadding) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if pad == message.PadSpacePad {
		b = bytes.TrimRight(b, " ")
	}
	return string(b)
}

// varLenStrings resolves each element's global heap reference.
func varLenStrings(data []byte, n uint64, cfg binary.Config, gh *heap.Cache) ([]string, error) {
	size := 4 + cfg.OffsetSize + 4
	if err := checkLen(data, n, size); err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, fmt.Errorf("%w: variable-length strings need a global heap", ErrUnsupported)
	}
	out := make([]string, n)
	for i := range out {
		ref := data[i*size : (i+1)*size]
		length := binary.DecodeUint(cfg.ByteOrder, ref[:4])
		id, err := heap.DecodeID(ref[4:], cfg)
		if err != nil {
			return nil, err
		}
		if id.IsNull() {
			continue
		}
		obj, err := gh.Object(id)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		if length < uint64(len(obj)) {
			obj = obj[:length]
		}
		out[i] = TrimPadding(obj, message.PadNullTerm)
	}
	return out, nil
}

// formatNumbers renders numeric elements as text for metadata columns.
func formatNumbers(dt *message.Datatype, data []byte, n uint64) ([]string, error) {
	if err := checkLen(data, n, int(dt.Size)); err != nil {
		return nil, err
	}
	size := int(dt.Size)
	out := make([]string, n)
	for i := range out {
		b := data[i*size : (i+1)*size]
		switch {
		case dt.Class == message.ClassFloatPoint:
			out[i] = strconv.FormatFloat(number(dt, b), 'g', -1, 8*size)
		case dt.Signed:
			out[i] = strconv.FormatInt(signed(dt, b), 10)
		default:
			out[i] = strconv.FormatUint(binary.DecodeUint(order(dt), b), 10)
		}
	}
	return out, nil
}
