package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/export"
	"github.com/robert-malhotra/go-gctx/gctio"
)

// ExportCmd returns the export command.
func ExportCmd() *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	rowMeta := fs.Bool("row-meta", false, "include row metadata columns")
	compression := fs.String("compression", "snappy", "parquet codec: snappy, zstd, gzip or none")
	return &Command{
		Flags:   fs,
		Usage:   "export <in> <out.parquet> [flags]",
		Short:   "Write a dataset as a Parquet table",
		Long:    "Write one Parquet row per rid: the rid, optionally the row metadata, then one float64 column per cid.",
		MinArgs: 2,
		Exec: func(_ context.Context, e *Env, args []string) error {
			ds, err := gctio.Read(args[0], e.IOOptions())
			if err != nil {
				return err
			}
			err = export.WriteParquet(ds, args[1], export.Options{
				Logger:      e.Logger,
				RowMeta:     *rowMeta,
				Compression: *compression,
			})
			if err != nil {
				return err
			}
			e.Println(args[1])
			return nil
		},
	}
}
