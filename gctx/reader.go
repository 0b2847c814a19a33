package gctx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gctoo"
	"github.com/robert-malhotra/go-gctx/hdf5"
	"github.com/robert-malhotra/go-gctx/internal/matrixstore"
)

// Reader loads GCTX files into gctoo datasets. It holds no file state and
// may be shared.
type Reader struct {
	logger  log.Logger
	metrics *Metrics
}

// NewReader returns a Reader configured by opts.
func NewReader(opts ...Option) *Reader {
	o := newOptions(opts)
	return &Reader{logger: o.logger, metrics: o.metrics}
}

// ReadOption adjusts a single Read.
type ReadOption func(*readOptions)

type readOptions struct {
	metadataOnly bool
	multiIndex   bool
}

// MetadataOnly skips the matrix and fills a placeholder of NaN sized to
// the selection.
func MetadataOnly() ReadOption { return func(o *readOptions) { o.metadataOnly = true } }

// MultiIndex builds the dataset's combined view.
func MultiIndex() ReadOption { return func(o *readOptions) { o.multiIndex = true } }

// Read loads the rows and columns picked by rows and cols, in ascending
// storage order. With convertNulls, "-666" metadata values become missing.
func (r *Reader) Read(path string, convertNulls bool, rows, cols gctoo.Selector, opts ...ReadOption) (*gctoo.Dataset, error) {
	var ds *gctoo.Dataset
	err := r.withFile(path, "read", func(f *hdf5.File) error {
		var err error
		ds, err = r.ReadFrom(f, convertNulls, rows, cols, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ReadFrom reads an already open file. The caller closes f.
func (r *Reader) ReadFrom(f *hdf5.File, convertNulls bool, rows, cols gctoo.Selector, opts ...ReadOption) (*gctoo.Dataset, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	version, err := readVersion(f)
	if err != nil {
		return nil, err
	}
	// Ids come first: selectors resolve against them before any matrix I/O.
	rids, err := readIDs(f, RowMetaPath)
	if err != nil {
		return nil, err
	}
	cids, err := readIDs(f, ColMetaPath)
	if err != nil {
		return nil, err
	}
	rowPos, colPos, err := gctoo.ResolveSelectors(rids, cids, rows, cols)
	if err != nil {
		return nil, err
	}

	var (
		m     *gctoo.Matrix
		mode  = "metadata-only"
		cells int
	)
	// A metadata-only read fills the matrix with NaN.
	if o.metadataOnly {
		m = gctoo.NaNMatrix(pick(rids, rowPos), pick(cids, colPos))
	} else {
		ds, err := f.OpenDataset(MatrixPath)
		if err != nil {
			return nil, classify(err)
		}
		store, err := matrixstore.New(ds, r.logger)
		if err != nil {
			return nil, err
		}
		var plan matrixstore.Plan
		m, plan, err = store.Read(rids, cids, rowPos, colPos)
		if err != nil {
			return nil, classify(err)
		}
		mode, cells = plan.Mode.String(), plan.Cells
	}

	// Metadata tables are small; read them whole and subset afterwards.
	rowMeta, err := readTable(f, RowMetaPath, gctoo.Rows, rids, convertNulls)
	if err != nil {
		return nil, err
	}
	colMeta, err := readTable(f, ColMetaPath, gctoo.Cols, cids, convertNulls)
	if err != nil {
		return nil, err
	}

	dsOpts := []gctoo.Option{gctoo.WithSrc(f.Path()), gctoo.WithVersion(version)}
	if o.multiIndex {
		dsOpts = append(dsOpts, gctoo.WithMultiIndex())
	}
	out, err := gctoo.New(m, rowMeta.Subset(rowPos), colMeta.Subset(colPos), dsOpts...)
	if err != nil {
		return nil, err
	}
	r.metrics.read(mode, cells, start)
	level.Info(r.logger).Log("msg", "read gctx", "path", f.Path(), "version", version, "rows", m.Rows(), "cols", m.Cols(), "mode", mode)
	return out, nil
}

// ReadRowMeta reads the whole row metadata table.
func (r *Reader) ReadRowMeta(path string, convertNulls bool) (*gctoo.Table, error) {
	return r.readMeta(path, RowMetaPath, gctoo.Rows, convertNulls)
}

// ReadColMeta reads the whole column metadata table.
func (r *Reader) ReadColMeta(path string, convertNulls bool) (*gctoo.Table, error) {
	return r.readMeta(path, ColMetaPath, gctoo.Cols, convertNulls)
}

func (r *Reader) readMeta(path, group string, axis gctoo.Axis, convertNulls bool) (*gctoo.Table, error) {
	var t *gctoo.Table
	err := r.withFile(path, axis.String()+"-meta", func(f *hdf5.File) error {
		start := time.Now()
		ids, err := readIDs(f, group)
		if err != nil {
			return err
		}
		if t, err = readTable(f, group, axis, ids, convertNulls); err != nil {
			return err
		}
		r.metrics.read(axis.String()+"-meta", 0, start)
		return nil
	})
	return t, err
}

// withFile opens path, runs fn and closes the file on every path out.
func (r *Reader) withFile(path, op string, fn func(*hdf5.File) error) (err error) {
	defer func() {
		if err != nil {
			r.metrics.failed(op)
			level.Debug(r.logger).Log("msg", "gctx read failed", "path", path, "op", op, "err", err)
		}
	}()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", gctoo.ErrNotFound, path)
		}
		return fmt.Errorf("%w: %w", gctoo.ErrIOFailure, err)
	}
	f, err := hdf5.Open(path)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", gctoo.ErrIOFailure, cerr)
		}
	}()
	return fn(f)
}

// classify maps substrate errors onto domain error kinds.
func classify(err error) error {
	for _, kind := range []error{
		gctoo.ErrNotFound, gctoo.ErrWrongFormat, gctoo.ErrMalformedDimensions, gctoo.ErrIOFailure,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	switch {
	case errors.Is(err, hdf5.ErrNotHDF5):
		return fmt.Errorf("%w: %w", gctoo.ErrWrongFormat, err)
	case errors.Is(err, hdf5.ErrNotFound), errors.Is(err, hdf5.ErrNotDataset), errors.Is(err, hdf5.ErrNotGroup):
		return fmt.Errorf("%w: missing gctx node: %w", gctoo.ErrWrongFormat, err)
	}
	return fmt.Errorf("%w: %w", gctoo.ErrIOFailure, err)
}

// readVersion returns the root version attribute, which may be a scalar
// or a one-element array. A file without one is gctoo.DefaultVersion.
func readVersion(f *hdf5.File) (string, error) {
	a, err := f.Attr(hdf5.JoinAttrPath("/", VersionAttr))
	if errors.Is(err, hdf5.ErrNotFound) {
		return gctoo.DefaultVersion, nil
	}
	if err != nil {
		return "", classify(err)
	}
	vals, err := a.Strings()
	if err != nil {
		return "", classify(err)
	}
	if len(vals) == 0 {
		return gctoo.DefaultVersion, nil
	}
	return gctoo.TrimField(vals[0]), nil
}

// readIDs reads the id dataset of a metadata group.
func readIDs(f *hdf5.File, group string) ([]string, error) {
	ds, err := f.OpenDataset(hdf5.CleanPath(group + "/" + IDField))
	if err != nil {
		return nil, classify(err)
	}
	ids, err := ds.ReadStrings()
	if err != nil {
		return nil, classify(err)
	}
	for i, id := range ids {
		ids[i] = gctoo.TrimField(id)
	}
	return ids, nil
}

// readTable decodes every field of group except id, in sorted order.
// Types are inferred over whole columns before any slicing.
func readTable(f *hdf5.File, group string, axis gctoo.Axis, ids []string, convertNulls bool) (*gctoo.Table, error) {
	g, err := f.OpenGroup(group)
	if err != nil {
		return nil, classify(err)
	}
	names, err := g.Members()
	if err != nil {
		return nil, classify(err)
	}
	// Fields come back in name order; the id dataset is not a field.
	slices.Sort(names)
	var (
		fields []string
		raw    [][]string
	)
	for _, name := range names {
		if name == IDField {
			continue
		}
		ds, err := g.OpenDataset(name)
		if errors.Is(err, hdf5.ErrNotDataset) {
			continue
		}
		if err != nil {
			return nil, classify(err)
		}
		vals, err := ds.ReadStrings()
		if err != nil {
			return nil, classify(err)
		}
		// Every field must have one value per id.
		if len(vals) != len(ids) {
			return nil, fmt.Errorf("%w: %s/%s has %d values for %d ids", gctoo.ErrMalformedDimensions, group, name, len(vals), len(ids))
		}
		fields = append(fields, name)
		raw = append(raw, vals)
	}
	return gctoo.DecodeTable(axis, ids, fields, raw, convertNulls)
}

// pick returns all[pos...], or all when pos is nil.
func pick(all []string, pos []int) []string {
	out := make([]string, len(pos))
	for i, p := range pos {
		out[i] = all[p]
	}
	return out
}
