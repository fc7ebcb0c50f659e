// Package table defines the tabular storage abstraction shared by the
// reconciliation engine and the store backends.
//
// A table is an ordered list of rows; a row maps column names to string
// values. Backends persist the whole table on every commit (overwrite with
// full contents), always writing columns in the order the caller supplies.
package table

import (
	"context"
	"errors"
)

// Driver identifies a concrete table store backend.
type Driver string

const (
	DriverCSV      Driver = "csv"      // local directory of <table>.csv files (default)
	DriverS3       Driver = "s3"       // S3 / MinIO bucket of CSV objects
	DriverPostgres Driver = "postgres" // PostgreSQL tables
	DriverMemory   Driver = "memory"   // in-memory (tests, dry runs)
)

var (
	// ErrNotFound is returned by Load when the named table does not exist yet.
	ErrNotFound = errors.New("table not found")

	// ErrUnavailable wraps failures to reach the backend at all.
	ErrUnavailable = errors.New("store unavailable")
)

// Row is one table row keyed by column name.
type Row map[string]string

// Get returns the value for column, or "" when absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values returns the row's values in column order.
func (r Row) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// Table is a full table image handed to Commit.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Store loads and persists whole tables.
type Store interface {
	// Load returns every row of the named table in stored order. columns
	// lists the columns the caller requires; backends reject tables that
	// lack any of them.
	Load(ctx context.Context, name string, columns []string) ([]Row, error)

	// Commit replaces the full contents of every given table. Backends that
	// can do so apply all tables atomically; the rest stage every table
	// before writing any of them.
	Commit(ctx context.Context, tables ...Table) error

	Driver() Driver
	Close() error
}
