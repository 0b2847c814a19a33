// Package layout reads and writes the raw element bytes of a dataset.
//
// A dataset stores its elements in one of three layouts:
//
//   - Compact: the bytes live inside the object header.
//   - Contiguous: one block in the file, row-major.
//   - Chunked: fixed-shape chunks, optionally filtered, found through a
//     chunk index (v1 B-tree, single chunk, implicit or fixed array).
//
// [New] wraps any of them in a [Storage] that answers full reads,
// hyperslab reads and index-list ("fancy") reads along one axis. Every
// read returns the selected elements in row-major order of the
// selection's shape. Chunked storage only fetches and decodes the chunks
// that intersect the selection; contiguous storage reads the outermost
// rows the selection touches, coalescing consecutive rows into one read.
//
// [WriteContiguous] and [WriteChunked] place a dataset's bytes into a
// file being assembled and return the layout message describing them.
// Chunked writes use a fixed array index.
package layout
