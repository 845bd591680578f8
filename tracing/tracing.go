// Package tracing records the responses and bus bursts of a simulation.
package tracing

import (
	"fmt"
	"strings"
)

// Record is one traced event.
type Record struct {
	ID    string
	Cycle uint64
	// Kind is "response", "read" or "write".
	Kind string
	Addr uint64
	Data []uint64
}

// DataString formats the data words as space-separated hex.
func (r Record) DataString() string {
	words := make([]string, len(r.Data))
	for i, d := range r.Data {
		words[i] = fmt.Sprintf("%#x", d)
	}

	return strings.Join(words, " ")
}

// A Writer stores trace records.
type Writer interface {
	// Init prepares the storage.
	Init() error
	// Write buffers a record.
	Write(record Record)
	// Flush writes buffered records out.
	Flush() error
	// Close flushes and releases the storage.
	Close() error
}

// NewWriter creates a writer for the named format, "csv" or "sqlite".
func NewWriter(format, path string) (Writer, error) {
	switch format {
	case "csv":
		return NewCSVTraceWriter(path), nil
	case "sqlite":
		return NewSQLiteTraceWriter(path), nil
	default:
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
}
