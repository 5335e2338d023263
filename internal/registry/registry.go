package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/maruel/replicalog/internal/jsonldb"
)

// Record is one replica event. The set of keys is up to the caller.
type Record map[string]string

// ErrEmptyStoreName is returned when an operation is called with an empty
// store name.
var ErrEmptyStoreName = errors.New("store name is empty")

// Registry appends, replays and deletes replica event stores under one state
// directory.
//
// A Registry is safe for concurrent use. Call Close to remove the state
// directory when done.
type Registry struct {
	dir      string
	instance string
	log      *slog.Logger
	locks    lockTable
}

// New returns a Registry rooted at StateDir(base). instance namespaces the
// store files so several registries can share one base directory; it may be
// empty. A nil logger means slog.Default().
//
// New does not touch the disk.
func New(base, instance string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:      StateDir(base),
		instance: instance,
		log:      logger,
	}
}

// Dir returns the state directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Instance returns the instance name, possibly empty.
func (r *Registry) Instance() string {
	return r.instance
}

// Path returns the file backing store.
func (r *Registry) Path(store string) string {
	return filepath.Join(r.dir, StoreFile(r.instance, store))
}

// AppendEvent appends rec as one line to store, creating the state directory
// and the store file as needed. A nil rec is written as an empty object.
//
// It returns false without error when the state directory disappears before
// the write, for example because Close ran concurrently.
func (r *Registry) AppendEvent(store string, rec Record) (bool, error) {
	if store == "" {
		return false, ErrEmptyStoreName
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil { //nolint:gosec // G301: state directory is not secret
		return false, fmt.Errorf("failed to create state directory %s: %w", r.dir, err)
	}
	if rec == nil {
		rec = Record{}
	}
	mu := r.locks.mutex(lockKey(r.instance, store))
	mu.Lock()
	defer mu.Unlock()
	return r.appendRow(r.Path(store), rec)
}

func (r *Registry) appendRow(path string, rec Record) (bool, error) {
	if err := jsonldb.Append(path, rec); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("State directory not found", "path", path, "err", err)
			return false, nil
		}
		return false, fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return true, nil
}

// DeleteStore removes the file backing store. It returns false if there was
// nothing to delete.
//
// Deletion does not wait for in-flight appends.
func (r *Registry) DeleteStore(store string) (bool, error) {
	if store == "" {
		return false, ErrEmptyStoreName
	}
	path := r.Path(store)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat store %q: %w", store, err)
	}
	return r.remove(path)
}

func (r *Registry) remove(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("State directory not found", "path", path, "err", err)
			return false, nil
		}
		return false, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return true, nil
}

// Events returns every record of store in append order. A store that was never
// written has no events. A line that does not decode as a record fails the
// whole call with an error wrapping jsonldb.ErrMalformedRow.
func (r *Registry) Events(store string) ([]Record, error) {
	if store == "" {
		return nil, ErrEmptyStoreName
	}
	events, err := jsonldb.ReadAll[Record](r.Path(store))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read store %q: %w", store, err)
	}
	return events, nil
}

// Stores lists the stores that currently have a file in the state directory,
// sorted by name.
//
// A registry without an instance name cannot tell namespaced files apart from
// plain ones, so it lists them under their full "{instance}_{store}" name.
func (r *Registry) Stores() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}
	stores := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s, ok := storeFromFile(r.instance, e.Name()); ok {
			stores = append(stores, s)
		}
	}
	slices.Sort(stores)
	return stores, nil
}

// Close removes the state directory and every store in it.
//
// Failures are logged and otherwise ignored; Close always returns nil so it
// can be deferred. It is safe to call more than once.
func (r *Registry) Close() error {
	if _, err := os.Stat(r.dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Error("Failed to stat state directory", "path", r.dir, "err", err)
		}
		return nil
	}
	if err := os.RemoveAll(r.dir); err != nil {
		r.log.Error("Failed to remove state directory", "path", r.dir, "err", err)
	}
	return nil
}
