// Package filter implements the chunk filters of a GCTX matrix.
//
// Chunked datasets pass every chunk through a pipeline of filters. On
// write the filters run in pipeline order; on read they are undone in
// reverse, skipping any filter whose bit is set in the chunk's filter
// mask.
//
// # Filters
//
//   - Deflate (1): zlib streams, via klauspost/compress/zlib.
//   - Shuffle (2): byte transposition by element size.
//   - Fletcher32 (3): trailing checksum, verified on read.
//   - LZ4 (32004): the HDF5 LZ4 plugin framing around pierrec/lz4 blocks.
//   - Zstandard (32015): single zstd frames, via klauspost/compress/zstd.
//
// SZIP, N-bit and scale-offset are recognised by name only; datasets
// that require them cannot be read. Optional filters that are not
// available are dropped from the pipeline.
package filter
