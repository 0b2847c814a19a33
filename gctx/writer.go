package gctx

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gctoo"
	"github.com/robert-malhotra/go-gctx/hdf5"
)

// Writer serializes gctoo datasets as GCTX files.
type Writer struct {
	opts options
}

// NewWriter returns a Writer configured by opts.
func NewWriter(opts ...Option) *Writer {
	return &Writer{opts: newOptions(opts)}
}

func (w *Writer) logger() log.Logger { return w.opts.logger }

// Write stores ds at outPath, adding the .gctx extension when missing,
// and returns the path written. The file is built in memory and renamed
// into place, so a failed write leaves no partial file. With
// reintroduceNullSentinel, missing metadata values are written as "-666".
func (w *Writer) Write(ds *gctoo.Dataset, outPath string, reintroduceNullSentinel bool) (string, error) {
	outPath = FileName(outPath)
	b, err := w.Build(ds, outPath, reintroduceNullSentinel)
	if err != nil {
		w.opts.metrics.failed("write")
		return "", err
	}
	if err := b.WriteFile(outPath); err != nil {
		w.opts.metrics.failed("write")
		return "", fmt.Errorf("%w: writing %s: %w", gctoo.ErrIOFailure, outPath, err)
	}
	w.opts.metrics.wrote()
	r, c := ds.Shape()
	level.Info(w.logger()).Log("msg", "wrote gctx", "path", outPath, "rows", r, "cols", c, "codec", w.opts.codec)
	return outPath, nil
}

// Build lays out the GCTX tree for ds without touching the filesystem.
// src defaults to outPath.
func (w *Writer) Build(ds *gctoo.Dataset, outPath string, reintroduceNullSentinel bool) (*hdf5.Builder, error) {
	m := ds.Data()
	if m == nil {
		return nil, fmt.Errorf("%w: dataset has no data matrix", gctoo.ErrMalformedDimensions)
	}
	b := hdf5.NewBuilder()
	root := b.Root()
	root.SetAttr(VersionAttr, w.version(ds))
	src := w.opts.src
	if src == "" {
		src = outPath
	}
	root.SetAttr(SrcAttr, src)

	data, err := root.Group("0/DATA/0")
	if err != nil {
		return nil, err
	}
	// The matrix is stored column-major, as cids x rids.
	dims := []uint64{uint64(m.Cols()), uint64(m.Rows())}
	if err := data.WriteFloat32("matrix", dims, m.Transpose().Float32s(), w.matrixOptions()...); err != nil {
		return nil, err
	}
	level.Debug(w.logger()).Log("msg", "laid out matrix", "shape", fmt.Sprintf("%dx%d", dims[0], dims[1]))

	for _, meta := range []struct {
		path  string
		axis  gctoo.Axis
		table *gctoo.Table
		ids   []string
	}{
		{RowMetaPath, gctoo.Rows, ds.RowMeta(), m.RowIDs()},
		{ColMetaPath, gctoo.Cols, ds.ColMeta(), m.ColIDs()},
	} {
		// An axis without metadata still gets its id dataset.
		t := meta.table
		if t == nil {
			t = gctoo.NewTable(meta.axis, meta.ids)
		}
		if err := writeTable(root, meta.path, t, reintroduceNullSentinel); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// version prefers the option, then the dataset's own GCTX version.
func (w *Writer) version(ds *gctoo.Dataset) string {
	switch {
	case w.opts.version != "":
		return w.opts.version
	case isGCTXVersion(ds.Version):
		return ds.Version
	}
	return gctoo.DefaultVersion
}

// matrixOptions maps the writer options onto HDF5 storage options.
func (w *Writer) matrixOptions() []hdf5.DatasetOption {
	var out []hdf5.DatasetOption
	if len(w.opts.chunkShape) > 0 {
		out = append(out, hdf5.WithChunks(w.opts.chunkShape...))
	}
	if w.opts.codec != "" && w.opts.codec != CodecNone {
		out = append(out, hdf5.WithCompression(string(w.opts.codec), w.opts.level))
	}
	if w.opts.shuffle {
		out = append(out, hdf5.WithShuffle())
	}
	return out
}

// writeTable writes the id array and then one fixed-width array per field.
func writeTable(root *hdf5.GroupBuilder, path string, t *gctoo.Table, reintroduceNullSentinel bool) error {
	enc, err := gctoo.EncodeTable(t, reintroduceNullSentinel)
	if err != nil {
		return err
	}
	g, err := root.Group(path)
	if err != nil {
		return err
	}
	if err := g.WriteStrings(IDField, enc.IDs, gctoo.FieldWidth); err != nil {
		return err
	}
	for j, name := range enc.Fields {
		if name == IDField {
			return fmt.Errorf("%w: %s metadata has a field named %q", gctoo.ErrInvariantViolation, t.Axis, IDField)
		}
		if err := g.WriteStrings(name, enc.Columns[j], gctoo.FieldWidth); err != nil {
			return err
		}
	}
	return nil
}
