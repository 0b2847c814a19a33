package hdf5

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/natefinch/atomic"

	"github.com/robert-malhotra/go-gctx/internal/alloc"
	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/dtype"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/layout"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
	"github.com/robert-malhotra/go-gctx/internal/superblock"
)

// Builder assembles an HDF5 file in memory. Dataset bytes are laid out as
// they are added; group headers, which must name their children's
// addresses, are laid out by Bytes. A Builder is not safe for concurrent
// use and cannot be reused after Bytes.
type Builder struct {
	sb    *superblock.Superblock
	cfg   binary.Config
	buf   binary.Buffer
	alloc *alloc.Allocator
	root  *GroupBuilder
	image []byte
}

// NewBuilder returns a Builder holding an empty root group.
func NewBuilder() *Builder {
	sb := superblock.New(0, 0)
	b := &Builder{sb: sb, cfg: sb.ReaderConfig(), alloc: alloc.New(uint64(sb.Size()))}
	b.root = &GroupBuilder{b: b, path: "/"}
	return b
}

// Root is the builder for "/".
func (b *Builder) Root() *GroupBuilder { return b.root }

// GroupBuilder collects the children and attributes of one group.
type GroupBuilder struct {
	b        *Builder
	path     string
	children []builderChild
	attrs    []*message.Attribute
}

// builderChild is a subgroup, laid out later, or a dataset already
// written at addr.
type builderChild struct {
	name  string
	group *GroupBuilder
	addr  uint64
}

// Path is the absolute path of the group being built.
func (g *GroupBuilder) Path() string { return g.path }

func (g *GroupBuilder) lookup(name string) (builderChild, bool) {
	for _, c := range g.children {
		if c.name == name {
			return c, true
		}
	}
	return builderChild{}, false
}

func (g *GroupBuilder) check() error {
	if g.b.image != nil {
		return fmt.Errorf("%w: builder already finished", ErrClosed)
	}
	return nil
}

// Group returns the group at the relative path p, creating any missing
// groups along it.
func (g *GroupBuilder) Group(p string) (*GroupBuilder, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	cur := g
	for _, name := range SplitPath(p) {
		c, ok := cur.lookup(name)
		switch {
		case ok && c.group == nil:
			return nil, fmt.Errorf("%w: %s is a dataset", ErrExists, childPath(cur.path, name))
		case ok:
			cur = c.group
		default:
			next := &GroupBuilder{b: g.b, path: childPath(cur.path, name)}
			cur.children = append(cur.children, builderChild{name: name, group: next})
			cur = next
		}
	}
	return cur, nil
}

// SetAttr sets a scalar string attribute, replacing one of the same name.
func (g *GroupBuilder) SetAttr(name, value string) {
	a := message.NewStringAttribute(name, value)
	for i, old := range g.attrs {
		if old.Name == name {
			g.attrs[i] = a
			return
		}
	}
	g.attrs = append(g.attrs, a)
}

// WriteFloat32 adds a float32 dataset of the given shape.
func (g *GroupBuilder) WriteFloat32(name string, dims []uint64, values []float32, opts ...DatasetOption) error {
	if product(dims) != uint64(len(values)) {
		return fmt.Errorf("dataset %s: %d values for shape %v", childPath(g.path, name), len(values), dims)
	}
	return g.writeDataset(name, message.NewFloat(4), dims, dtype.EncodeFloat32s(values), opts)
}

// WriteStrings adds a one-dimensional dataset of width-byte null-padded
// strings. A value longer than width is an error.
func (g *GroupBuilder) WriteStrings(name string, values []string, width int, opts ...DatasetOption) error {
	raw, err := dtype.EncodeFixedStrings(values, width)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", childPath(g.path, name), err)
	}
	return g.writeDataset(name, message.NewFixedString(uint32(width), message.PadNullPad), []uint64{uint64(len(values))}, raw, opts)
}

func (g *GroupBuilder) writeDataset(name string, dt *message.Datatype, dims []uint64, raw []byte, opts []DatasetOption) error {
	if err := g.check(); err != nil {
		return err
	}
	p := childPath(g.path, name)
	if _, ok := g.lookup(name); ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	o := &datasetOptions{}
	for _, opt := range opts {
		opt(o)
	}

	b := g.b
	msgs := object.DatasetMessages{Space: message.NewSimpleDataspace(dims...), Datatype: dt}
	var err error
	// Empty datasets cannot be chunked; they fall back to contiguous.
	if o.chunked() && product(dims) > 0 {
		if msgs.Pipeline, err = filter.Describe(o.codec, o.level, o.shuffle, dt.Size); err != nil {
			return fmt.Errorf("dataset %s: %w", p, err)
		}
		chunks := o.chunkShape(dims, uint64(dt.Size))
		msgs.Layout, err = layout.WriteChunked(&b.buf, b.alloc, b.cfg, raw, dims, chunks, dt.Size, msgs.Pipeline)
		msgs.Fill = message.NewFillValue(message.AllocIncremental)
	} else {
		msgs.Layout, err = layout.WriteContiguous(&b.buf, b.alloc, b.cfg, raw)
		msgs.Fill = message.NewFillValue(message.AllocLate)
	}
	if err != nil {
		return fmt.Errorf("dataset %s: %w", p, err)
	}
	for _, kv := range o.attrs {
		msgs.Attributes = append(msgs.Attributes, message.NewStringAttribute(kv[0], kv[1]))
	}

	addr, err := b.writeHeader(object.NewDatasetHeader(msgs), 0, "dataset header")
	if err != nil {
		return fmt.Errorf("dataset %s: %w", p, err)
	}
	g.children = append(g.children, builderChild{name: name, addr: addr})
	return nil
}

func (b *Builder) writeHeader(msgs []message.Encoder, minChunk int, tag string) (uint64, error) {
	raw, err := object.Encode(msgs, b.cfg, minChunk)
	if err != nil {
		return 0, err
	}
	addr := b.alloc.Alloc(uint64(len(raw)), tag)
	if _, err := b.buf.WriteAt(raw, int64(addr)); err != nil {
		return 0, err
	}
	return addr, nil
}

// layoutGroup writes g's subgroups, then g, and returns g's address.
func (b *Builder) layoutGroup(g *GroupBuilder) (uint64, error) {
	links := make([]*message.Link, 0, len(g.children))
	for _, c := range g.children {
		addr := c.addr
		if c.group != nil {
			var err error
			if addr, err = b.layoutGroup(c.group); err != nil {
				return 0, err
			}
		}
		links = append(links, message.NewHardLink(c.name, addr))
	}
	msgs := object.NewGroupHeader(links...)
	for _, a := range g.attrs {
		msgs = append(msgs, a)
	}
	addr, err := b.writeHeader(msgs, object.MinGroupChunkSize, "group header")
	if err != nil {
		return 0, fmt.Errorf("group %s: %w", g.path, err)
	}
	return addr, nil
}

// Bytes lays out the groups, writes the superblock and returns the file
// image. Later calls return the same image.
func (b *Builder) Bytes() ([]byte, error) {
	if b.image != nil {
		return b.image, nil
	}
	rootAddr, err := b.layoutGroup(b.root)
	if err != nil {
		return nil, err
	}
	if err := b.alloc.Validate(); err != nil {
		return nil, err
	}
	eof := b.alloc.EOF()
	if n := uint64(b.buf.Len()); n < eof {
		if _, err := b.buf.WriteAt(make([]byte, eof-n), int64(n)); err != nil {
			return nil, err
		}
	}
	b.sb.RootGroupAddress, b.sb.EOFAddress = rootAddr, eof
	if err := b.sb.Write(binary.NewWriter(&b.buf, b.cfg)); err != nil {
		return nil, fmt.Errorf("writing superblock: %w", err)
	}
	b.image = slices.Clip(b.buf.Bytes())
	return b.image, nil
}

// Stats reports the regions laid out so far.
func (b *Builder) Stats() alloc.Stats { return b.alloc.Stats() }

// WriteTo writes the finished image to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	img, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(img)
	return int64(n), err
}

// WriteFile writes the finished image to path atomically: the file is
// either fully replaced or left untouched.
func (b *Builder) WriteFile(path string) error {
	img, err := b.Bytes()
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(img))
}
