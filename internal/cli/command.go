package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one gctx subcommand.
type Command struct {
	Flags *flag.FlagSet

	// Usage follows "gctx" in help output, e.g. "info <file>".
	Usage string
	Short string
	Long  string

	// MinArgs is the number of positional arguments Exec needs.
	MinArgs int

	Exec func(ctx context.Context, e *Env, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine is the command's row in the top-level usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-44s %s", c.Usage, c.Short)
}

// PrintHelp prints the help shown by "gctx <cmd> --help".
func (c *Command) PrintHelp(e *Env) {
	e.Println("Usage: gctx", c.Usage)
	e.Println()
	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	e.Println(desc)
	if c.Flags.HasFlags() {
		e.Println()
		e.Println("Flags:")
		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		e.Printf("%s", buf.String())
	}
}

// Run parses args and executes the command, returning the exit code.
func (c *Command) Run(ctx context.Context, e *Env, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})
	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(e)
			return 0
		}
		e.Errorln("error:", err)
		return 2
	}
	if n := c.Flags.NArg(); n < c.MinArgs {
		e.Errorln(fmt.Sprintf("error: %s needs %d argument(s), got %d", c.Name(), c.MinArgs, n))
		e.Errorln("usage: gctx", c.Usage)
		return 2
	}
	if err := c.Exec(ctx, e, c.Flags.Args()); err != nil {
		e.Errorln("error:", err)
		return 1
	}
	return 0
}
