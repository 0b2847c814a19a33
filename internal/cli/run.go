// Package cli implements the gctx command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/gctx"
)

// Env is what every command runs against.
type Env struct {
	Out, Err io.Writer
	WorkDir  string
	Config   Config
	Sources  ConfigSources
	Logger   log.Logger
	Metrics  *gctx.Metrics
	Vars     map[string]string
}

// Output helpers for commands.
func (e *Env) Println(a ...any)               { fmt.Fprintln(e.Out, a...) }
func (e *Env) Printf(format string, a ...any) { fmt.Fprintf(e.Out, format, a...) }
func (e *Env) Errorln(a ...any)               { fmt.Fprintln(e.Err, a...) }

// IOOptions turns the configuration into read/write options.
func (e *Env) IOOptions() gctio.Options {
	o := gctio.DefaultOptions()
	o.Logger = e.Logger
	o.Metrics = e.Metrics
	o.ConvertNulls = *e.Config.ConvertNulls
	// validateConfig already rejected unknown codecs.
	o.Codec, _ = gctx.ParseCodec(e.Config.Compression)
	o.Level = *e.Config.CompressionLevel
	o.Shuffle = *e.Config.Shuffle
	o.Precision = *e.Config.Precision
	return o
}

// commands lists the subcommands in the order usage shows them.
func commands() []*Command {
	return []*Command{
		InfoCmd(),
		TreeCmd(),
		ConvertCmd(),
		SliceCmd(),
		ConcatCmd(),
		RandomCmd(),
		GenesCmd(),
		ExportCmd(),
		ConfigCmd(),
	}
}

// globalFlags come before the subcommand name.
type globalFlags struct {
	fs           *flag.FlagSet
	workDir      string
	configPath   string
	logLevel     string
	logFormat    string
	convertNulls bool
	metrics      bool
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{fs: flag.NewFlagSet("gctx", flag.ContinueOnError)}
	// Stop at the subcommand so its own flags reach its flag set.
	g.fs.SetInterspersed(false)
	g.fs.StringVarP(&g.workDir, "cwd", "C", "", "run as if started in `dir`")
	g.fs.StringVarP(&g.configPath, "config", "c", "", "read configuration from `file`")
	g.fs.StringVar(&g.logLevel, "log-level", "", "debug, info, warn, error or none")
	g.fs.StringVar(&g.logFormat, "log-format", "", "logfmt or json")
	g.fs.BoolVar(&g.convertNulls, "convert-nulls", true, "read -666 metadata values as missing")
	g.fs.BoolVar(&g.metrics, "metrics", false, "print collected metrics to stderr on exit")
	return g
}

// apply lets flags the user set win over the loaded configuration.
func (g *globalFlags) apply(cfg *Config) {
	if g.fs.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if g.fs.Changed("log-format") {
		cfg.LogFormat = g.logFormat
	}
	if g.fs.Changed("convert-nulls") {
		cfg.ConvertNulls = ptr(g.convertNulls)
	}
}

// Run is the gctx entry point. It returns the process exit code.
func Run(ctx context.Context, out, errOut io.Writer, args []string, env map[string]string) int {
	g := newGlobalFlags()
	// pflag prints its own usage on error; usage is printed below instead.
	g.fs.SetOutput(&strings.Builder{})
	cmds := commands()

	if err := g.fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, g, cmds)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut, g, cmds)
		return 2
	}
	rest := g.fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(out, g, cmds)
		return 0
	}

	// Global flags are parsed; settle the directory configs are found from.
	workDir := g.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(errOut, "error: cannot get working directory:", err)
			return 1
		}
		workDir = wd
	}

	// Flags override the layered config files.
	cfg, sources, err := LoadConfig(workDir, g.configPath, env)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	g.apply(&cfg)
	if err := validateConfig(cfg); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	logger, err := newLogger(errOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	// Each run gets a fresh registry so --metrics reports this command only.
	reg := prometheus.NewRegistry()
	e := &Env{
		Out:     out,
		Err:     errOut,
		WorkDir: workDir,
		Config:  cfg,
		Sources: sources,
		Logger:  logger,
		Metrics: gctx.NewMetrics(reg),
		Vars:    env,
	}
	level.Debug(logger).Log("msg", "config loaded", "sources", strings.Join(sources, ","))

	name := rest[0]
	for _, c := range cmds {
		if c.Name() == name {
			code := c.Run(ctx, e, rest[1:])
			if g.metrics {
				dumpMetrics(errOut, reg)
			}
			return code
		}
	}
	fmt.Fprintln(errOut, "error: unknown command:", name)
	printUsage(errOut, g, cmds)
	return 2
}

// printUsage lists the commands and the global flags.
func printUsage(w io.Writer, g *globalFlags, cmds []*Command) {
	fmt.Fprintln(w, "Usage: gctx [global flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range cmds {
		fmt.Fprintln(w, c.HelpLine())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	var buf strings.Builder
	g.fs.SetOutput(&buf)
	g.fs.PrintDefaults()
	fmt.Fprint(w, buf.String())
}

// dumpMetrics prints every non-zero sample as "name{labels} value".
func dumpMetrics(w io.Writer, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintln(w, "error gathering metrics:", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			// Histograms are summarized; their buckets are noise here.
			switch {
			case m.GetCounter() != nil && m.GetCounter().GetValue() != 0:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil && m.GetHistogram().GetSampleCount() != 0:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s_count %d", name, h.GetSampleCount()))
				lines = append(lines, fmt.Sprintf("%s_sum %g", name, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
