package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat32s lays out values as little-endian float32.
func EncodeFloat32s(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// EncodeFixedStrings lays out values as size-byte null-padded strings.
// A value longer than size is an error.
func EncodeFixedStrings(values []string, size int) ([]byte, error) {
	out := make([]byte, size*len(values))
	for i, v := range values {
		if len(v) > size {
			return nil, fmt.Errorf("string %q is %d bytes, longer than %d", v, len(v), size)
		}
		copy(out[i*size:], v)
	}
	return out, nil
}
