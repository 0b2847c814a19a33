package cli

import (
	"context"

	"github.com/go-kit/log/level"
	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctoo"
)

// ConcatCmd returns the concat command.
func ConcatCmd() *Command {
	fs := flag.NewFlagSet("concat", flag.ContinueOnError)
	vertical := fs.Bool("vertical", false, "stack rows instead of columns")
	remove := fs.StringSlice("remove-field", nil, "drop these metadata fields from the shared axis before merging")
	reset := fs.Bool("reset-ids", false, "renumber the concatenated axis, keeping old ids in a metadata field")
	wf := addWriteFlags(fs)
	return &Command{
		Flags:   fs,
		Usage:   "concat <out> <files...> [flags]",
		Short:   "Concatenate datasets side by side or on top of each other",
		Long:    "Horizontal concatenation joins columns of datasets sharing rids; --vertical joins rows of datasets sharing cids.",
		MinArgs: 3,
		Exec: func(_ context.Context, e *Env, args []string) error {
			o := e.IOOptions()
			if err := wf.apply(fs, &o); err != nil {
				return err
			}
			// Inputs may mix formats; each is read by its extension.
			ds := make([]*gctoo.Dataset, 0, len(args)-1)
			for _, p := range args[1:] {
				d, err := gctio.Read(p, o)
				if err != nil {
					return err
				}
				ds = append(ds, d)
			}
			stack := gctoo.HStack
			if *vertical {
				stack = gctoo.VStack
			}
			out, err := stack(ds, *remove, *reset)
			if err != nil {
				return err
			}
			level.Debug(e.Logger).Log("msg", "concatenated", "inputs", len(ds), "vertical", *vertical)
			written, err := gctio.Write(out, args[0], o)
			if err != nil {
				return err
			}
			rows, cols := out.Shape()
			e.Printf("%s %dx%d\n", written, rows, cols)
			return nil
		},
	}
}
