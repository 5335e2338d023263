package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/replicalog/internal/jsonldb"
)

// Follow calls fn for every record of store, then keeps watching the store and
// calls fn for each record appended afterward, until ctx is done, fn returns an
// error or the state directory is removed.
//
// When the store file is deleted or shrinks, following restarts from its first
// record. A trailing line without its newline is left for the next change.
//
// Follow creates the state directory if needed. It returns ctx.Err() on
// cancellation and nil when the state directory is removed.
func (r *Registry) Follow(ctx context.Context, store string, fn func(Record) error) error {
	if store == "" {
		return ErrEmptyStoreName
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil { //nolint:gosec // G301: state directory is not secret
		return fmt.Errorf("failed to create state directory %s: %w", r.dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	// Watch the directory, not the file: the file may not exist yet and may be
	// deleted and recreated.
	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}

	dir := filepath.Clean(r.dir)
	path := filepath.Clean(r.Path(store))
	t := tail{path: path, fn: fn}
	if err := t.poll(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if name == dir && event.Has(fsnotify.Remove) {
				r.log.DebugContext(ctx, "State directory removed, stop following", "store", store)
				return nil
			}
			if name != path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				t.seen = 0
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := t.poll(); err != nil {
					return err
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("failed watching %s: %w", r.dir, err)
		}
	}
}

// tail tracks how many complete records of a store have been delivered.
type tail struct {
	path string
	fn   func(Record) error
	seen int
}

// poll delivers the records appended since the last call.
func (t *tail) poll() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.seen = 0
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", t.path, err)
	}
	// Ignore a partially written last line.
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[:i+1]
	} else {
		data = nil
	}
	events, err := jsonldb.Decode[Record](data, t.path)
	if err != nil {
		return err
	}
	if len(events) < t.seen {
		t.seen = 0
	}
	for _, ev := range events[t.seen:] {
		if err := t.fn(ev); err != nil {
			return err
		}
		t.seen++
	}
	return nil
}
