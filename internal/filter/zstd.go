package filter

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Encoders are large; keep one pool per level.
var (
	zstdEncoders sync.Map // level -> *sync.Pool
	zstdDecoder  = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
)

// Zstd is the Zstandard filter. Chunks are single zstd frames.
type Zstd struct {
	level int
}

// NewZstd returns a zstd filter at the given encoder level.
func NewZstd(level int) *Zstd { return &Zstd{level: level} }

func (f *Zstd) ID() uint16 { return message.FilterZstd }

// encoderPool returns the shared pool for f's level.
func (f *Zstd) encoderPool() *sync.Pool {
	if p, ok := zstdEncoders.Load(f.level); ok {
		return p.(*sync.Pool)
	}
	level := zstd.EncoderLevelFromZstd(f.level)
	p, _ := zstdEncoders.LoadOrStore(f.level, &sync.Pool{New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return err
		}
		return enc
	}})
	return p.(*sync.Pool)
}

// Encode compresses in as one zstd frame.
func (f *Zstd) Encode(in []byte) ([]byte, error) {
	pool := f.encoderPool()
	v := pool.Get()
	enc, ok := v.(*zstd.Encoder)
	if !ok {
		return nil, v.(error)
	}
	defer pool.Put(enc)
	return enc.EncodeAll(in, make([]byte, 0, len(in)/2)), nil
}

// Decode decompresses a single zstd frame.
func (f *Zstd) Decode(in []byte) ([]byte, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(in, nil)
}
