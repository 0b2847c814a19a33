package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctoo"
)

// RandomCmd returns the random command.
func RandomCmd() *Command {
	fs := flag.NewFlagSet("random", flag.ContinueOnError)
	n := fs.IntP("count", "n", 0, "number of rows or columns to keep")
	axis := fs.String("axis", "row", "row or col")
	useUUIDs := fs.Bool("uuid", false, "label both axes with random UUIDs instead of 0..k-1")
	seed := fs.Uint64("seed", 0, "random seed (default is time based)")
	wf := addWriteFlags(fs)
	return &Command{
		Flags:   fs,
		Usage:   "random <in> <out> -n N [flags]",
		Short:   "Sample random rows or columns",
		MinArgs: 2,
		Exec: func(_ context.Context, e *Env, args []string) error {
			ax, err := parseAxis(*axis)
			if err != nil {
				return err
			}
			o := e.IOOptions()
			if err := wf.apply(fs, &o); err != nil {
				return err
			}
			// Pass --seed to repeat a draw.
			s := *seed
			if !fs.Changed("seed") {
				s = uint64(time.Now().UnixNano())
			}
			ds, err := gctio.Read(args[0], o)
			if err != nil {
				return err
			}
			out, err := gctoo.RandomSubset(ds, *n, ax, rand.New(rand.NewPCG(s, s)), *useUUIDs)
			if err != nil {
				return err
			}
			written, err := gctio.Write(out, args[1], o)
			if err != nil {
				return err
			}
			e.Println(written)
			return nil
		},
	}
}

// parseAxis accepts the singular and plural spellings.
func parseAxis(s string) (gctoo.Axis, error) {
	switch s {
	case "row", "rows":
		return gctoo.Rows, nil
	case "col", "cols", "column", "columns":
		return gctoo.Cols, nil
	}
	return 0, fmt.Errorf("axis must be row or col, got %q", s)
}
