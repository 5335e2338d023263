// Package main is the entry point for replicalog.
//
// replicalog appends, replays and deletes replica event stores kept as JSONL
// files in the ".replicas" subdirectory of a base directory. Configuration is
// read from REPLICALOG_* environment variables, an optional .env file in the
// current directory, and CLI flags, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/replicalog/internal/config"
	"github.com/maruel/replicalog/internal/registry"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const usage = `usage: replicalog [flags] <command> [args]

commands:
  append [-id] STORE key=value...  append one event to STORE
  events [-follow] STORE           print the events of STORE
  delete STORE                     delete STORE
  stores                           list stores
  clean                            remove the state directory
  version                          print version information

flags:
`

// streams is where a command writes.
type streams struct {
	out   io.Writer
	err   io.Writer
	color bool
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "replicalog: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	s := streams{
		out:   os.Stdout,
		err:   colorable.NewColorable(os.Stderr),
		color: isatty.IsTerminal(os.Stderr.Fd()),
	}
	return run(ctx, os.Args[1:], s)
}

func run(ctx context.Context, args []string, s streams) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("replicalog", flag.ContinueOnError)
	fs.SetOutput(s.err)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "Base directory; stores live in its .replicas subdirectory")
	fs.StringVar(&cfg.Instance, "instance", cfg.Instance, "Instance name used to namespace store files")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Event output format (json, yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := newLogger(s.err, level, !s.color)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	reg := registry.New(cfg.Dir, cfg.Instance, logger)
	name, cargs := rest[0], rest[1:]
	logger.DebugContext(ctx, "Running", "cmd", name, "dir", reg.Dir(), "instance", cfg.Instance)
	switch name {
	case "append":
		return cmdAppend(reg, cargs, s)
	case "events":
		return cmdEvents(ctx, reg, cargs, cfg.Format, s)
	case "delete":
		return cmdDelete(ctx, reg, cargs, logger)
	case "stores":
		return cmdStores(reg, cargs, s)
	case "clean":
		if len(cargs) != 0 {
			return fmt.Errorf("unknown arguments: %v", cargs)
		}
		return reg.Close()
	case "version":
		printVersion(s.out)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}
}

func newLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			switch t := a.Value.Any().(type) {
			case string:
				if t == "" {
					return slog.Attr{}
				}
			case time.Duration:
				if t == 0 {
					return slog.Attr{}
				}
			case nil:
				return slog.Attr{}
			}
			return a
		},
	}))
}
