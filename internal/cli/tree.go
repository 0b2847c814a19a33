package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

// TreeCmd returns the tree command.
func TreeCmd() *Command {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	attrs := fs.Bool("attrs", true, "print attribute values")
	maxDepth := fs.Int("max-depth", 0, "stop descending below `n` levels (0 is unlimited)")
	return &Command{
		Flags:   fs,
		Usage:   "tree <file>",
		Short:   "Print the HDF5 object tree of a GCTX file",
		MinArgs: 1,
		Exec: func(_ context.Context, e *Env, args []string) error {
			return execTree(e, args[0], *attrs, *maxDepth)
		},
	}
}

// execTree prints one line per object, indented by depth. Datasets show
// type, shape, layout and filters.
func execTree(e *Env, path string, showAttrs bool, maxDepth int) error {
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	e.Printf("%s (superblock v%d)\n", path, f.SuperblockVersion())

	return hdf5.Walk(f.Root(), func(p string, obj any, err error) error {
		depth := len(hdf5.SplitPath(p))
		indent := strings.Repeat("  ", depth)
		if err != nil {
			// Unreadable objects, such as dense-link groups, are listed and skipped.
			e.Printf("%s%s: ERROR %v\n", indent, p, err)
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			name := o.Name()
			if name != "/" {
				name += "/"
			}
			e.Printf("%s%s\n", indent, name)
			if showAttrs {
				printAttrs(e, indent+"  ", o.Attrs(), o.Attr)
			}
			if maxDepth > 0 && depth >= maxDepth {
				return hdf5.SkipGroup
			}
		case *hdf5.Dataset:
			line := fmt.Sprintf("%s%s %s %v %s", indent, o.Name(), o.DatatypeName(), o.Shape(), o.Layout())
			if fl := o.Filters(); len(fl) > 0 {
				line += " [" + strings.Join(fl, ",") + "]"
			}
			e.Println(line)
			if showAttrs {
				printAttrs(e, indent+"  ", o.Attrs(), o.Attr)
			}
		case hdf5.SoftLink:
			e.Printf("%s%s -> %s\n", indent, p[strings.LastIndexByte(p, '/')+1:], o.Target)
		}
		return nil
	})
}

// printAttrs prints attribute values, reporting ones it cannot decode.
func printAttrs(e *Env, indent string, names []string, get func(string) *hdf5.Attribute) {
	for _, name := range names {
		v, err := get(name).Value()
		if err != nil {
			e.Printf("%s@%s: ERROR %v\n", indent, name, err)
			continue
		}
		e.Printf("%s@%s = %v\n", indent, name, v)
	}
}
