package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/maruel/ksid"
	"github.com/maruel/replicalog/internal/registry"
	"gopkg.in/yaml.v3"
)

var errNotWritten = errors.New("event not written: state directory disappeared")

func cmdAppend(reg *registry.Registry, args []string, s streams) error {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	fs.SetOutput(s.err)
	stamp := fs.Bool("id", false, "Set the id key to a new sortable ID when absent")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("append: missing store name")
	}
	rec, err := parseRecord(fs.Args()[1:])
	if err != nil {
		return err
	}
	if _, ok := rec["id"]; *stamp && !ok {
		rec["id"] = ksid.NewID().String()
	}
	ok, err := reg.AppendEvent(fs.Arg(0), rec)
	if err != nil {
		return err
	}
	if !ok {
		return errNotWritten
	}
	return nil
}

// parseRecord builds a record from key=value arguments. Later keys win.
func parseRecord(args []string) (registry.Record, error) {
	rec := registry.Record{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q, want key=value", arg)
		}
		if k == "" {
			return nil, fmt.Errorf("invalid field %q, empty key", arg)
		}
		rec[k] = v
	}
	return rec, nil
}

func cmdEvents(ctx context.Context, reg *registry.Registry, args []string, format string, s streams) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(s.err)
	follow := fs.Bool("follow", false, "Keep printing events as they are appended")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("events: want exactly one store name")
	}
	store := fs.Arg(0)
	p, err := newPrinter(s.out, format)
	if err != nil {
		return err
	}
	if *follow {
		return reg.Follow(ctx, store, p.print)
	}
	events, err := reg.Events(store)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := p.print(ev); err != nil {
			return err
		}
	}
	return nil
}

func cmdDelete(ctx context.Context, reg *registry.Registry, args []string, logger *slog.Logger) error {
	if len(args) != 1 {
		return errors.New("delete: want exactly one store name")
	}
	ok, err := reg.DeleteStore(args[0])
	if err != nil {
		return err
	}
	if !ok {
		logger.InfoContext(ctx, "Nothing to delete", "store", args[0])
	}
	return nil
}

func cmdStores(reg *registry.Registry, args []string, s streams) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown arguments: %v", args)
	}
	stores, err := reg.Stores()
	if err != nil {
		return err
	}
	for _, name := range stores {
		if _, err := fmt.Fprintln(s.out, name); err != nil {
			return err
		}
	}
	return nil
}

// printer writes records one at a time, so that followed output can be
// streamed.
type printer struct {
	w      io.Writer
	format string
	enc    *json.Encoder
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case "json":
		return &printer{w: w, format: format, enc: json.NewEncoder(w)}, nil
	case "yaml":
		return &printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("invalid format %q", format)
	}
}

func (p *printer) print(rec registry.Record) error {
	if p.format == "json" {
		return p.enc.Encode(rec)
	}
	// Each record is a one item sequence; concatenated they form one list.
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode([]registry.Record{rec}); err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err := p.w.Write(buf.Bytes())
	return err
}
