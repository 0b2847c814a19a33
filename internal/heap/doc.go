// Package heap reads the two heap structures a GCTX file can reference.
//
// Local heaps ("HEAP") hold the link names of version 1 symbol-table
// groups. Global heap collections ("GCOL") hold the bytes of
// variable-length strings; each string element of a dataset is a
// [ID] naming a collection and an object inside it.
package heap
