package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctx"
	"github.com/robert-malhotra/go-gctx/hdf5"
)

// InfoCmd returns the info command.
func InfoCmd() *Command {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	metaOnly := fs.Bool("meta-only", false, "skip reading the data matrix")
	return &Command{
		Flags:   fs,
		Usage:   "info <file>",
		Short:   "Describe a GCT or GCTX file",
		Long:    "Print the shape, version, source, metadata fields and content fingerprint of a file. For GCTX files the matrix storage is described too.",
		MinArgs: 1,
		Exec: func(_ context.Context, e *Env, args []string) error {
			return execInfo(e, args[0], *metaOnly)
		},
	}
}

// execInfo prints the shape and field names of a dataset, its
// fingerprint unless metaOnly, and the matrix storage of GCTX files.
func execInfo(e *Env, path string, metaOnly bool) error {
	o := e.IOOptions()
	o.MetadataOnly = metaOnly
	ds, err := gctio.Read(path, o)
	if err != nil {
		return err
	}
	rows, cols := ds.Shape()
	e.Printf("file:          %s\n", path)
	e.Printf("version:       %s\n", ds.Version)
	e.Printf("src:           %s\n", ds.Src)
	e.Printf("shape:         %d rows x %d columns\n", rows, cols)
	e.Printf("row fields:    %s\n", strings.Join(ds.RowMeta().Fields(), ", "))
	e.Printf("column fields: %s\n", strings.Join(ds.ColMeta().Fields(), ", "))
	if !metaOnly {
		e.Printf("fingerprint:   %016x\n", ds.Fingerprint())
	}

	// GCTX files also report how the matrix is stored.
	if format, _ := gctio.Detect(path); format != gctio.GCTX {
		return nil
	}
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	m, err := f.OpenDataset(gctx.MatrixPath)
	if err != nil {
		return err
	}
	e.Printf("matrix:        %s %v %s", m.DatatypeName(), m.Shape(), m.Layout())
	if c := m.Chunks(); len(c) > 0 {
		e.Printf(" chunks=%v", c)
	}
	if fl := m.Filters(); len(fl) > 0 {
		e.Printf(" filters=%s", strings.Join(fl, ","))
	}
	e.Println()
	return nil
}
