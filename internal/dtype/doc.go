// Package dtype converts between the raw element bytes of a dataset or
// attribute and Go slices.
//
// Numeric classes (integers of 1, 2, 4 or 8 bytes and IEEE floats of 4
// or 8 bytes, either byte order) convert to float32 or float64. Strings
// come from fixed-length elements, with their padding trimmed, or from
// variable-length elements resolved through a global heap cache.
// [Strings] also renders numeric elements as text, which is how
// metadata stored as numbers reaches the string-based table decoder.
//
// The encode side produces the little-endian float32 matrices and
// null-padded fixed strings that a GCTX writer stores.
package dtype
