// Command knolbox runs the Leitner study engine.
//
//	knolbox serve                      HTTP API
//	knolbox sync [--sync.owners a,b]   pull the catalog into decks
//	knolbox stats --owner X            print maintained stats
//	knolbox verify --owner X [--repair]
//
// Every command accepts --config and the config flags. Exit codes: 0 =
// success, 1 = error, 2 = usage.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/knolbox/internal/app"
	"github.com/conorfennell/knolbox/internal/config"
)

const usage = `usage: knolbox <command> [flags]

commands:
  serve    run the HTTP API
  sync     sync the catalog into decks
  stats    print an owner's stats
  verify   compare an owner's stats with a full recompute
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := pflag.NewFlagSet("knolbox "+cmd, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	owner := fs.String("owner", "", "owner whose stats to read")
	repair := fs.Bool("repair", false, "overwrite drifted stats with the recompute")

	switch cmd {
	case "serve", "sync", "stats", "verify":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := app.NewLogger(stderr, cfg.Log)

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "serve":
		return a.Serve(ctx)

	case "sync":
		reports, err := a.SyncCatalog(ctx, cfg.Sync.Owners)
		if err != nil {
			return err
		}
		return printJSON(stdout, reports)

	case "stats":
		if *owner == "" {
			fmt.Fprintln(stderr, "stats: --owner is required")
			return errUsage
		}
		st, err := a.Stats.Get(ctx, *owner)
		if err != nil {
			return err
		}
		return printJSON(stdout, st)

	case "verify":
		if *owner == "" {
			fmt.Fprintln(stderr, "verify: --owner is required")
			return errUsage
		}
		v, err := a.Stats.Verify(ctx, *owner)
		if err != nil {
			return err
		}
		if !v.Equal && *repair {
			repaired, err := a.Stats.Repair(ctx, *owner)
			if err != nil {
				return err
			}
			return printJSON(stdout, map[string]any{"equal": false, "repaired": repaired})
		}
		if err := printJSON(stdout, v); err != nil {
			return err
		}
		if !v.Equal {
			return fmt.Errorf("stats for %s drifted from their cards", *owner)
		}
		return nil
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
