// Package btree walks version 1 B-trees ("TREE" nodes).
//
// Files written with the oldest format index group members and dataset
// chunks with v1 B-trees:
//
//   - Group trees (node type 0) point at symbol table nodes ("SNOD")
//     whose entries name children through a local heap. See [ReadGroup].
//   - Chunk trees (node type 1) key each chunk by its element offset and
//     record its on-disk size and filter mask. See [ReadChunks].
//
// Newer files index chunks with fixed arrays, which the layout package
// reads directly.
package btree
