package hdf5

// DatasetOption configures a dataset written by a Builder.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	chunks  []uint64
	codec   string
	level   int
	shuffle bool
	attrs   [][2]string
}

// WithChunks stores the dataset in chunks of the given extent, clipped
// to the dataset's shape.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) { o.chunks = dims }
}

// WithCompression compresses each chunk with codec ("gzip", "zstd" or
// "lz4"). A level of 0 picks the codec's default. Compressed datasets are
// always chunked.
func WithCompression(codec string, level int) DatasetOption {
	return func(o *datasetOptions) { o.codec, o.level = codec, level }
}

// WithShuffle byte-shuffles elements ahead of compression.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) { o.shuffle = true }
}

// WithAttribute attaches a string attribute to the dataset.
func WithAttribute(name, value string) DatasetOption {
	return func(o *datasetOptions) { o.attrs = append(o.attrs, [2]string{name, value}) }
}

func (o *datasetOptions) chunked() bool {
	return len(o.chunks) > 0 || o.shuffle || (o.codec != "" && o.codec != "none")
}

// targetChunkBytes bounds automatically chosen chunks.
const targetChunkBytes = 1 << 20

// chunkShape clips the requested chunks to dims or, with none requested,
// halves the largest dimension until a chunk fits targetChunkBytes.
func (o *datasetOptions) chunkShape(dims []uint64, elem uint64) []uint32 {
	shape := make([]uint64, len(dims))
	for i, d := range dims {
		shape[i] = d
		if i < len(o.chunks) && o.chunks[i] > 0 {
			shape[i] = min(o.chunks[i], d)
		}
	}
	if len(o.chunks) == 0 {
		for product(shape)*elem > targetChunkBytes {
			big := 0
			for i := range shape {
				if shape[i] > shape[big] {
					big = i
				}
			}
			if shape[big] == 1 {
				break
			}
			shape[big] = (shape[big] + 1) / 2
		}
	}
	out := make([]uint32, len(shape))
	for i, s := range shape {
		out[i] = uint32(min(max(s, 1), 1<<31))
	}
	return out
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}
