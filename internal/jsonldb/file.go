package jsonldb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformedRow is returned by ReadAll when a line is not a valid row.
var ErrMalformedRow = errors.New("malformed row")

// Append serializes row as a single line and appends it to the file at path,
// creating the file if needed. The parent directory must exist.
//
// Errors from opening or writing the file are wrapped, so callers can test for
// fs.ErrNotExist with errors.Is.
func Append(path string, row any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	return appendLine(path, data)
}

// appendLine appends an already serialized row to the file at path.
//
// line must not contain a newline. The line and its terminator are written
// with one write call.
func appendLine(path string, line []byte) error {
	if bytes.IndexByte(line, '\n') >= 0 {
		return errors.New("row contains a newline")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302: rows are not secret
	if err != nil {
		return fmt.Errorf("failed to open file for append: %w", err)
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadAll reads every row of the file at path, in file order.
//
// A missing file is reported as an error wrapping fs.ErrNotExist. A line that
// fails to decode, or is a JSON null, aborts the read with an error wrapping
// ErrMalformedRow.
func ReadAll[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode[T](data, path)
}

// Decode decodes JSONL content. name is only used in error messages.
func Decode[T any](data []byte, name string) ([]T, error) {
	rows := []T{}
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if bytes.Equal(line, []byte("null")) {
			return nil, fmt.Errorf("%w in %s line %d: null row", ErrMalformedRow, name, i+1)
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("%w in %s line %d: %w", ErrMalformedRow, name, i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
