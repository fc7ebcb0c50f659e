// Package csvfs implements a table Store over a local directory holding one
// <table>.csv file per table.
package csvfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/spregistry/internal/csvio"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// Store implements table.Store on the local filesystem.
//
// Commit writes every table to a temporary file in the same directory first
// and renames them into place only once all of them were written, so a failed
// write leaves the previous files untouched.
type Store struct {
	dir string
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create table dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Driver returns the table driver identifier.
func (s *Store) Driver() table.Driver { return table.DriverCSV }

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing the named table.
func (s *Store) Path(name string) (string, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, clean+".csv"), nil
}

func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("empty table name")
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("invalid table name %q", name)
	case strings.Contains(name, ".."):
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return strings.TrimSuffix(name, ".csv"), nil
}

// Load reads the named table.
func (s *Store) Load(_ context.Context, name string, columns []string) ([]table.Row, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, table.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csvio.ReadTable(f, columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

type staged struct {
	tmp  string
	dest string
}

// Commit replaces the given tables.
func (s *Store) Commit(ctx context.Context, tables ...table.Table) error {
	var files []staged
	cleanup := func() {
		for _, f := range files {
			_ = os.Remove(f.tmp)
		}
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		dest, err := s.Path(t.Name)
		if err != nil {
			cleanup()
			return err
		}
		tmp, err := s.writeTemp(t)
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
		files = append(files, staged{tmp: tmp, dest: dest})
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			for _, rest := range files[i:] {
				_ = os.Remove(rest.tmp)
			}
			return fmt.Errorf("replace %s: %w", f.dest, err)
		}
	}
	return nil
}

func (s *Store) writeTemp(t table.Table) (string, error) {
	clean, err := sanitizeName(t.Name)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(s.dir, "."+clean+"-*.csv.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if err := csvio.WriteTable(f, t.Columns, t.Rows); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
