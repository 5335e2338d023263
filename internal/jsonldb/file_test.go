package jsonldb

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testRow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestAppend(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.jsonl")
		rows := []testRow{
			{ID: 1, Name: "One"},
			{ID: 2, Name: "Two"},
		}
		for _, r := range rows {
			if err := Append(path, r); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		want := "{\"id\":1,\"name\":\"One\"}\n{\"id\":2,\"name\":\"Two\"}\n"
		if got := string(data); got != want {
			t.Errorf("file content = %q, want %q", got, want)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("missing directory", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "test.jsonl")
			err := Append(path, testRow{ID: 1})
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("Append() error = %v, want fs.ErrNotExist", err)
			}
		})

		t.Run("unmarshalable row", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.jsonl")
			if err := Append(path, make(chan int)); err == nil {
				t.Error("Append() expected error for channel row")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("file should not be created on marshal failure, stat err = %v", err)
			}
		})

		t.Run("embedded newline", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.jsonl")
			if err := appendLine(path, []byte("{}\n{}")); err == nil {
				t.Error("appendLine() expected error for embedded newline")
			}
		})
	})
}

func TestReadAll(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			want    []testRow
		}{
			{"empty file", "", []testRow{}},
			{"single row", `{"id":1,"name":"One"}` + "\n", []testRow{{1, "One"}}},
			{"no trailing newline", `{"id":1,"name":"One"}`, []testRow{{1, "One"}}},
			{"blank lines", "\n  \n" + `{"id":1,"name":"One"}` + "\n\n\t\n" + `{"id":2,"name":"Two"}` + "\n\n", []testRow{{1, "One"}, {2, "Two"}}},
			{"crlf", `{"id":1,"name":"One"}` + "\r\n" + `{"id":2,"name":"Two"}` + "\r\n", []testRow{{1, "One"}, {2, "Two"}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "test.jsonl")
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
				got, err := ReadAll[testRow](path)
				if err != nil {
					t.Fatalf("ReadAll failed: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("ReadAll() returned %d rows, want %d", len(got), len(tt.want))
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("row %d = %+v, want %+v", i, got[i], tt.want[i])
					}
				}
			})
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("missing file", func(t *testing.T) {
			_, err := ReadAll[testRow](filepath.Join(t.TempDir(), "nope.jsonl"))
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("ReadAll() error = %v, want fs.ErrNotExist", err)
			}
		})

		t.Run("null line", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.jsonl")
			content := `{"id":1,"name":"One"}` + "\n" + "null\n"
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			rows, err := ReadAll[map[string]string](path)
			if !errors.Is(err, ErrMalformedRow) {
				t.Errorf("ReadAll() = (%v, %v), want ErrMalformedRow", rows, err)
			}
		})

		t.Run("malformed line", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.jsonl")
			content := `{"id":1,"name":"One"}` + "\n" + `{"id":2,` + "\n"
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := ReadAll[testRow](path)
			if !errors.Is(err, ErrMalformedRow) {
				t.Fatalf("ReadAll() error = %v, want ErrMalformedRow", err)
			}
			if !strings.Contains(err.Error(), "line 2") {
				t.Errorf("error %q should name line 2", err)
			}
		})
	})
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.jsonl")
	for i := range 50 {
		if err := Append(path, map[string]string{"n": strings.Repeat("x", i)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	rows, err := ReadAll[map[string]string](path)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(rows) != 50 {
		t.Fatalf("got %d rows, want 50", len(rows))
	}
	for i, row := range rows {
		if len(row["n"]) != i {
			t.Errorf("row %d has n of length %d", i, len(row["n"]))
		}
	}
}
