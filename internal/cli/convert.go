package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctx"
)

// writeFlags are shared by every command that writes a dataset.
type writeFlags struct {
	compression string
	level       int
	shuffle     bool
	precision   int
	dims        bool
	keepMissing bool
}

// addWriteFlags registers the write flags on fs.
func addWriteFlags(fs *flag.FlagSet) *writeFlags {
	w := &writeFlags{}
	fs.StringVar(&w.compression, "compression", "", "GCTX chunk codec: none, gzip, zstd or lz4")
	fs.IntVar(&w.level, "level", 0, "compression level")
	fs.BoolVar(&w.shuffle, "shuffle", false, "byte-shuffle GCTX chunks before compressing")
	fs.IntVar(&w.precision, "precision", -1, "GCT data decimals (-1 keeps every digit)")
	fs.BoolVar(&w.dims, "dims", false, "name GCT output <name>_n<cols>x<rows>.gct")
	fs.BoolVar(&w.keepMissing, "keep-missing", false, "write missing metadata as empty rather than -666")
	return w
}

// apply copies the flags the user changed onto o.
func (w *writeFlags) apply(fs *flag.FlagSet, o *gctio.Options) error {
	// Flags left at their defaults keep the configured values.
	if fs.Changed("compression") {
		c, ok := gctx.ParseCodec(w.compression)
		if !ok {
			return fmt.Errorf("unknown compression %q", w.compression)
		}
		o.Codec = c
	}
	if fs.Changed("level") {
		o.Level = w.level
	}
	if fs.Changed("shuffle") {
		o.Shuffle = w.shuffle
	}
	if fs.Changed("precision") {
		o.Precision = w.precision
	}
	// These two have no config key.
	o.DimsSuffix = w.dims
	o.ReintroduceNulls = !w.keepMissing
	return nil
}

// ConvertCmd returns the convert command.
func ConvertCmd() *Command {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	wf := addWriteFlags(fs)
	return &Command{
		Flags:   fs,
		Usage:   "convert <in> <out> [flags]",
		Short:   "Convert between GCT and GCTX",
		Long:    "Rewrite <in> as <out>. Formats follow the file extensions; -666 metadata values pass through unchanged.",
		MinArgs: 2,
		Exec: func(_ context.Context, e *Env, args []string) error {
			o := e.IOOptions()
			if err := wf.apply(fs, &o); err != nil {
				return err
			}
			written, err := gctio.Convert(args[0], args[1], o)
			if err != nil {
				return err
			}
			e.Println(written)
			return nil
		},
	}
}
