package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

// ConfigCmd returns the config command.
func ConfigCmd() *Command {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	global := fs.Bool("global", false, "init writes the global config instead of "+ConfigFileName)
	force := fs.Bool("force", false, "init overwrites an existing file")
	return &Command{
		Flags:   fs,
		Usage:   "config show|init [flags]",
		Short:   "Show the effective configuration or write a default one",
		MinArgs: 1,
		Exec: func(_ context.Context, e *Env, args []string) error {
			switch args[0] {
			case "show":
				return execConfigShow(e)
			case "init":
				return execConfigInit(e, *global, *force)
			}
			return fmt.Errorf("unknown config action %q", args[0])
		},
	}
}

// execConfigShow prints the merged config as HuJSON, preceded by the
// files it was layered from.
func execConfigShow(e *Env) error {
	out, err := FormatConfig(e.Config)
	if err != nil {
		return err
	}
	// Comment lines keep the output valid HuJSON.
	for _, s := range e.Sources {
		e.Printf("// from %s\n", s)
	}
	e.Println(out)
	return nil
}

// execConfigInit writes the defaults to the project or global config file.
func execConfigInit(e *Env, global, force bool) error {
	path := filepath.Join(e.WorkDir, ConfigFileName)
	if global {
		if path = globalConfigPath(e.Vars); path == "" {
			return fmt.Errorf("cannot locate the global config directory")
		}
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := WriteConfig(path, DefaultConfig()); err != nil {
		return err
	}
	e.Println(path)
	return nil
}
