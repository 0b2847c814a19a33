// Package alloc hands out file addresses while a GCTX file is assembled
// in memory.
//
// Allocation is append-only: every region starts at the current end of
// file, rounded up to 8 bytes, and is recorded with a tag so a finished
// layout can be checked with [Allocator.Validate] and summarised with
// [Allocator.Stats]. An Allocator is not safe for concurrent use.
package alloc
