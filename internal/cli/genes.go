package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/robert-malhotra/go-gctx/gctio"
	"github.com/robert-malhotra/go-gctx/internal/clue"
)

var errNoUserKey = errors.New("clue_user_key is not configured")

// GenesCmd returns the genes command.
func GenesCmd() *Command {
	fs := flag.NewFlagSet("genes", flag.ContinueOnError)
	field := fs.String("field", "pr_gene_symbol", "row metadata `field` holding gene symbols")
	timeout := fs.Duration("timeout", 30*time.Second, "API request timeout")
	return &Command{
		Flags:   fs,
		Usage:   "genes <file> [flags]",
		Short:   "Check row gene symbols against the CLUE API",
		Long:    "Look up the distinct gene symbols of the row metadata in the CLUE API and list those it does not know. The API URL and user key come from the configuration.",
		MinArgs: 1,
		Exec: func(ctx context.Context, e *Env, args []string) error {
			if e.Config.ClueUserKey == "" {
				return errNoUserKey
			}
			// The timeout bounds each request, including reading the reply.
			c := clue.NewClient(e.Config.ClueURL, e.Config.ClueUserKey, e.Logger)
			c.HTTP = &http.Client{Timeout: *timeout}
			return execGenes(ctx, e, c, args[0], *field)
		},
	}
}

// execGenes prints each distinct symbol of field that the API does not
// know, then a summary line. q is a Mock in tests.
func execGenes(ctx context.Context, e *Env, q clue.Querier, path, field string) error {
	meta, err := gctio.ReadRowMeta(path, e.IOOptions())
	if err != nil {
		return err
	}
	col, ok := meta.Column(field)
	if !ok {
		return fmt.Errorf("row metadata has no field %q", field)
	}
	// Query each symbol once, in first-seen order.
	seen := map[string]bool{}
	var symbols []string
	for _, v := range col {
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		e.Println("no gene symbols")
		return nil
	}

	found, err := clue.GenesInAPI(ctx, q, symbols)
	if err != nil {
		return err
	}
	var missing int
	for _, s := range symbols {
		if _, ok := found[s]; !ok {
			e.Printf("missing\t%s\n", s)
			missing++
		}
	}
	e.Printf("%d of %d symbols found\n", len(symbols)-missing, len(symbols))
	return nil
}
