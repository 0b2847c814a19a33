package filter

import "github.com/robert-malhotra/go-gctx/internal/message"

// Shuffle groups the i-th byte of every element together. Trailing bytes
// that do not form a whole element are left in place.
type Shuffle struct {
	size int
}

// NewShuffle returns a shuffle over elements of elemSize bytes.
func NewShuffle(elemSize int) *Shuffle { return &Shuffle{size: elemSize} }

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

// Encode writes byte j of element i to position j*n+i.
func (f *Shuffle) Encode(in []byte) ([]byte, error) {
	n := len(in) / max(f.size, 1)
	if f.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for j := 0; j < f.size; j++ {
			out[j*n+i] = in[i*f.size+j]
		}
	}
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}

// Decode is the inverse transpose.
func (f *Shuffle) Decode(in []byte) ([]byte, error) {
	n := len(in) / max(f.size, 1)
	if f.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for j := 0; j < f.size; j++ {
			out[i*f.size+j] = in[j*n+i]
		}
	}
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}
