package hdf5

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/object"
	"github.com/robert-malhotra/go-gctx/internal/superblock"
)

// File is an open HDF5 file. Its methods may be called from several
// goroutines.
type File struct {
	path   string
	closer io.Closer
	reader *binary.Reader
	sb     *superblock.Superblock
	root   *Group

	mu     sync.Mutex
	gh     *heap.Cache
	closed bool
}

// Open opens the HDF5 file at path for reading.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := newFile(fh, path)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.closer = fh
	return f, nil
}

// OpenReader reads an HDF5 image from r. name is only reported by Path.
func OpenReader(r io.ReaderAt, name string) (*File, error) {
	return newFile(r, name)
}

func newFile(src io.ReaderAt, path string) (*File, error) {
	sb, err := superblock.Read(src)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	if sb.BaseAddress != 0 {
		src = io.NewSectionReader(src, int64(sb.BaseAddress), 1<<62)
	}
	f := &File{path: path, sb: sb, reader: binary.NewReader(src, sb.ReaderConfig())}
	f.gh = heap.NewCache(f.reader)

	root, err := f.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close releases the underlying file. Closing twice is a no-op.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Path is the name the file was opened with.
func (f *File) Path() string { return f.path }

// SuperblockVersion is the version of the file's superblock.
func (f *File) SuperblockVersion() int { return int(f.sb.Version) }

func (f *File) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// OpenGroup opens the group at an absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens the dataset at an absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Attr returns the attribute at "/object/path@name".
func (f *File) Attr(path string) (*Attribute, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	objPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.root.open(objPath)
	if err != nil {
		return nil, err
	}
	var a *Attribute
	switch o := obj.(type) {
	case *Group:
		a = o.Attr(name)
	case *Dataset:
		a = o.Attr(name)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: attribute %s", ErrNotFound, path)
	}
	return a, nil
}

// openGroupAt reads the header at addr and requires a group.
func (f *File) openGroupAt(addr uint64, path string) (*Group, error) {
	h, err := object.Read(f.reader, addr)
	if err != nil {
		return nil, err
	}
	if h.IsDataset() {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, path)
	}
	return &Group{file: f, path: path, header: h}, nil
}

// openObject returns a *Group or *Dataset for the header at addr.
func (f *File) openObject(addr uint64, path string) (any, error) {
	h, err := object.Read(f.reader, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h.IsDataset() {
		return newDataset(f, path, h)
	}
	return &Group{file: f, path: path, header: h}, nil
}

// heapCache locks the global heap cache until the returned func runs.
func (f *File) heapCache() (*heap.Cache, func()) {
	f.mu.Lock()
	return f.gh, f.mu.Unlock
}
