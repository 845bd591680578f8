package tracing

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter stores records in a SQLite database.
type SQLiteTraceWriter struct {
	db        *sql.DB
	statement *sql.Stmt

	dbName    string
	records   []Record
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. An empty path picks
// a unique file name.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	return &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 10000,
	}
}

// Path returns the database name, without the .sqlite3 suffix.
func (t *SQLiteTraceWriter) Path() string {
	return t.dbName
}

// Init creates the database and the trace table.
func (t *SQLiteTraceWriter) Init() error {
	if t.dbName == "" {
		t.dbName = "minicache_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("failed to open trace database: %w", err)
	}
	t.db = db

	_, err = t.db.Exec(`
		CREATE TABLE trace (
			id    TEXT PRIMARY KEY,
			cycle INTEGER NOT NULL,
			kind  TEXT NOT NULL,
			addr  INTEGER NOT NULL,
			data  TEXT NOT NULL
		)`)
	if err != nil {
		t.closeDB()
		return fmt.Errorf("failed to create trace table: %w", err)
	}

	t.statement, err = t.db.Prepare(
		"INSERT INTO trace (id, cycle, kind, addr, data) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		t.closeDB()
		return fmt.Errorf("failed to prepare trace insert: %w", err)
	}

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

func (t *SQLiteTraceWriter) closeDB() {
	_ = t.db.Close()
	t.db = nil
}

// Write buffers a record, flushing when the batch is full.
func (t *SQLiteTraceWriter) Write(record Record) {
	t.records = append(t.records, record)
	if len(t.records) >= t.batchSize {
		if err := t.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush inserts the buffered records in one transaction.
func (t *SQLiteTraceWriter) Flush() error {
	if len(t.records) == 0 || t.db == nil {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace transaction: %w", err)
	}

	stmt := tx.Stmt(t.statement)
	for _, r := range t.records {
		_, err := stmt.Exec(r.ID, int64(r.Cycle), r.Kind, int64(r.Addr),
			r.DataString())
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert trace record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace records: %w", err)
	}

	t.records = nil

	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (t *SQLiteTraceWriter) Close() error {
	if t.db == nil {
		return nil
	}

	if err := t.Flush(); err != nil {
		return err
	}

	_ = t.statement.Close()
	err := t.db.Close()
	t.db = nil

	return err
}
