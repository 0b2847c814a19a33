package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-gctx/internal/dtype"
	"github.com/robert-malhotra/go-gctx/internal/filter"
	"github.com/robert-malhotra/go-gctx/internal/layout"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Dataset is an HDF5 dataset.
type Dataset struct {
	file    *File
	path    string
	header  *object.Header
	space   *message.Dataspace
	dt      *message.Datatype
	storage *layout.Storage
}

func newDataset(f *File, p string, h *object.Header) (*Dataset, error) {
	d := &Dataset{file: f, path: p, header: h, space: h.Dataspace(), dt: h.Datatype()}
	if d.space == nil || d.dt == nil || h.DataLayout() == nil {
		return nil, fmt.Errorf("dataset %s: missing dataspace, datatype or layout", p)
	}
	elem := dtype.ElementSize(d.dt, f.reader.OffsetSize())
	s, err := layout.New(h.DataLayout(), d.space, uint32(elem), h.FilterPipeline(), f.reader)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	d.storage = s
	return d, nil
}

// Name is the last path component.
func (d *Dataset) Name() string { return path.Base(d.path) }

// Path is the absolute path of the dataset.
func (d *Dataset) Path() string { return d.path }

// Shape is nil for scalar datasets.
func (d *Dataset) Shape() []uint64 { return d.storage.Dims() }

// Shape and type queries.
func (d *Dataset) Rank() int            { return len(d.storage.Dims()) }
func (d *Dataset) NumElements() uint64  { return d.space.NumElements() }
func (d *Dataset) ElementSize() int     { return int(d.storage.ElementSize()) }
func (d *Dataset) IsString() bool       { return d.dt.IsString() }
func (d *Dataset) IsNumeric() bool      { return dtype.IsNumeric(d.dt) }
func (d *Dataset) Layout() string       { return d.storage.Class().String() }
func (d *Dataset) DatatypeName() string { return d.dt.String() }

// Chunks returns the chunk extent of chunked datasets and nil otherwise.
func (d *Dataset) Chunks() []uint64 {
	l := d.header.DataLayout()
	if l.Class != message.LayoutChunked {
		return nil
	}
	out := make([]uint64, len(l.ChunkDims)-1)
	for i := range out {
		out[i] = uint64(l.ChunkDims[i])
	}
	return out
}

// Filters names the filters applied to each chunk, in pipeline order.
func (d *Dataset) Filters() []string {
	fp := d.header.FilterPipeline()
	if fp == nil {
		return nil
	}
	names := make([]string, len(fp.Filters))
	for i, fi := range fp.Filters {
		names[i] = filter.Name(fi.ID)
	}
	return names
}

// ReadRaw returns the stored bytes of every element.
func (d *Dataset) ReadRaw() ([]byte, error) {
	raw, err := d.storage.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return raw, nil
}

// ReadFloat32 returns every element converted to float32.
func (d *Dataset) ReadFloat32() ([]float32, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	return d.float32s(raw)
}

// ReadFloat64 returns every element converted to float64.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	out, err := dtype.Float64s(d.dt, raw, uint64(len(raw))/d.storage.ElementSize())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return out, nil
}

// ReadIndicesFloat32 reads the listed positions along axis, which must be
// strictly ascending, with every position of the other axes.
func (d *Dataset) ReadIndicesFloat32(axis int, idx []uint64) ([]float32, error) {
	raw, err := d.storage.ReadIndices(axis, idx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return d.float32s(raw)
}

// ReadSliceFloat32 reads the hyperslab of count elements from start.
func (d *Dataset) ReadSliceFloat32(start, count []uint64) ([]float32, error) {
	raw, err := d.storage.ReadSlice(start, count)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return d.float32s(raw)
}

// float32s converts raw elements of any numeric type.
func (d *Dataset) float32s(raw []byte) ([]float32, error) {
	out, err := dtype.Float32s(d.dt, raw, uint64(len(raw))/d.storage.ElementSize())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return out, nil
}

// ReadStrings returns every element as text. Numeric datasets are
// formatted.
func (d *Dataset) ReadStrings() ([]string, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	gh, unlock := d.file.heapCache()
	defer unlock()
	out, err := dtype.Strings(d.dt, raw, d.space.NumElements(), d.file.reader.Config(), gh)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return out, nil
}

// Attrs lists the dataset's attribute names.
func (d *Dataset) Attrs() []string { return attrNames(d.header) }

// Attr returns the named attribute or nil.
func (d *Dataset) Attr(name string) *Attribute { return newAttribute(d.file, d.header.Attribute(name)) }
