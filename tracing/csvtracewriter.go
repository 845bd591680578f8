package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter stores records into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []Record
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. An empty path picks a
// unique file name.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the file name, without the .csv suffix.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Init creates the CSV file. It fails if the file already exists.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "minicache_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	t.file = file

	_, _ = fmt.Fprintf(file, "ID, Cycle, Kind, Addr, Data\n")

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

// Write buffers a record, flushing when the buffer is full.
func (t *CSVTraceWriter) Write(record Record) {
	t.records = append(t.records, record)
	if len(t.records) >= t.bufferSize {
		if err := t.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes the buffered records to the file.
func (t *CSVTraceWriter) Flush() error {
	if t.file == nil {
		return nil
	}

	for _, r := range t.records {
		_, err := fmt.Fprintf(t.file, "%s, %d, %s, %#x, %s\n",
			r.ID, r.Cycle, r.Kind, r.Addr, r.DataString())
		if err != nil {
			return fmt.Errorf("failed to write trace record: %w", err)
		}
	}

	t.records = nil

	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}

	if err := t.Flush(); err != nil {
		return err
	}

	err := t.file.Close()
	t.file = nil

	return err
}
