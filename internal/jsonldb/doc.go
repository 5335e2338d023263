// Package jsonldb reads and writes JSONL (JSON Lines) files.
//
// # Overview
//
// A file holds one JSON value per line. [Append] is the only write primitive:
// it serializes a row and appends it, followed by a newline, in a single
// write. [ReadAll] reads the whole file back and decodes every non-blank line.
//
// # Concurrency
//
// The package holds no state and takes no locks. Callers that append to the
// same file from several goroutines must serialize those calls themselves.
// Readers see whatever bytes are on disk at the time of the read.
//
// # File Format
//
// UTF-8, one JSON value per line, no header. Blank and whitespace-only lines
// are ignored on read, so trailing newlines and CRLF line endings are accepted.
package jsonldb
