// Package hdf5 reads HDF5 files and builds new ones.
//
// The reader covers the subset of the format that GCTX files written by
// h5py, PyTables and the HDF5 C library use: superblocks v0 through v3,
// object headers v1 and v2, symbol-table and compact link-message groups,
// and compact, contiguous or chunked datasets with deflate, shuffle,
// fletcher32, zstd or lz4 filters. Groups with dense link storage fail
// with [ErrDenseLinks].
//
// The [Builder] assembles a whole file in memory and writes it in one
// step, so a failed write never leaves a partial file behind.
package hdf5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/superblock"
)

var (
	ErrNotHDF5     = superblock.ErrNotHDF5
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrExists      = errors.New("object already exists")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")

	// ErrDenseLinks is returned for groups that keep their links in a
	// fractal heap. HDF5 switches a group to this storage once it holds
	// more than eight links unless the writer raised the threshold.
	ErrDenseLinks = fmt.Errorf("%w: dense link storage (fractal heap)", ErrUnsupported)
)

// MaxLinkDepth bounds the soft links followed while resolving one path.
const MaxLinkDepth = 100
