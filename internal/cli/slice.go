package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctoo"
)

// SliceCmd returns the slice command.
func SliceCmd() *Command {
	fs := flag.NewFlagSet("slice", flag.ContinueOnError)
	rids := fs.StringSlice("rid", nil, "keep rows with these ids")
	cids := fs.StringSlice("cid", nil, "keep columns with these ids")
	ridFile := fs.String("rid-file", "", "read row ids from `file`, one per line")
	cidFile := fs.String("cid-file", "", "read column ids from `file`, one per line")
	ridx := fs.IntSlice("ridx", nil, "keep rows at these 0-based positions")
	cidx := fs.IntSlice("cidx", nil, "keep columns at these 0-based positions")
	metaOnly := fs.Bool("meta-only", false, "skip the data matrix; it is written as NaN")
	wf := addWriteFlags(fs)
	return &Command{
		Flags:   fs,
		Usage:   "slice <in> <out> [flags]",
		Short:   "Extract rows and columns by id or position",
		Long:    "Read the selected rows and columns of <in> and write them to <out>. Ids and positions may not be mixed on one axis.",
		MinArgs: 2,
		Exec: func(_ context.Context, e *Env, args []string) error {
			o := e.IOOptions()
			if err := wf.apply(fs, &o); err != nil {
				return err
			}
			var err error
			if o.Rows, err = selector(*rids, *ridFile, *ridx); err != nil {
				return err
			}
			if o.Cols, err = selector(*cids, *cidFile, *cidx); err != nil {
				return err
			}
			// Selection happens during the read so only the chosen cells are decoded.
			o.MetadataOnly = *metaOnly
			ds, err := gctio.Read(args[0], o)
			if err != nil {
				return err
			}
			written, err := gctio.Write(ds, args[1], o)
			if err != nil {
				return err
			}
			rows, cols := ds.Shape()
			e.Printf("%s %dx%d\n", written, rows, cols)
			return nil
		},
	}
}

// selector builds one axis selector from ids, an id file or positions.
func selector(ids []string, idFile string, pos []int) (gctoo.Selector, error) {
	// Ids from the file extend those given on the command line.
	if idFile != "" {
		more, err := readIDFile(idFile)
		if err != nil {
			return gctoo.Selector{}, err
		}
		ids = append(ids, more...)
	}
	return gctoo.Selector{IDs: ids, Positions: pos}, nil
}

// readIDFile reads one id per line, skipping blank lines.
func readIDFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading id file: %w", err)
	}
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}
