// Package postgres implements a table Store over PostgreSQL.
//
// Each registry table maps to a relation of TEXT columns plus a row_num key
// that preserves row order. Commit replaces every table inside a single
// transaction (TRUNCATE then COPY), so a run either persists all tables or
// none of them.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

const rowNumColumn = "row_num"

// Config holds connection settings.
type Config struct {
	URL             string
	Schema          string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements table.Store on PostgreSQL.
type Store struct {
	db     querier
	schema string
	close  func()
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: pool, schema: schemaOrDefault(cfg.Schema), close: pool.Close}, nil
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

// Driver returns the table driver identifier.
func (s *Store) Driver() table.Driver { return table.DriverPostgres }

func (s *Store) ident(name string) pgx.Identifier {
	return pgx.Identifier{s.schema, name}
}

// Load reads every row of the named table ordered by row_num.
func (s *Store) Load(ctx context.Context, name string, columns []string) ([]table.Row, error) {
	existing, err := s.columns(ctx, name)
	if err != nil {
		return nil, unavailable(err)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("%s.%s: %w", s.schema, name, table.ErrNotFound)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}
	var missing []string
	for _, c := range columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s.%s: missing required columns: %s", s.schema, name, strings.Join(missing, ", "))
	}

	rows, err := s.db.Query(ctx, selectSQL(s.ident(name), existing))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	var out []table.Row
	for rows.Next() {
		vals := make([]pgtype.Text, len(existing))
		dest := make([]any, len(existing))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}

		row := make(table.Row, len(existing))
		for i, c := range existing {
			row[c] = vals[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

// columns returns the data columns of a table in ordinal order, or nil when
// the table does not exist.
func (s *Store) columns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 AND column_name <> $3
		ORDER BY ordinal_position`, s.schema, name, rowNumColumn)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", name, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", name, err)
	}
	return cols, nil
}

// Commit replaces every given table in one transaction.
func (s *Store) Commit(ctx context.Context, tables ...table.Table) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return unavailable(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("empty table name")
		}
		if err := s.replace(ctx, tx, t); err != nil {
			return fmt.Errorf("replace %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, tx pgx.Tx, t table.Table) error {
	id := s.ident(t.Name)

	for _, stmt := range ensureSQL(id, t.Columns) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+id.Sanitize()); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}

	copyCols := append([]string{rowNumColumn}, t.Columns...)
	_, err := tx.CopyFrom(ctx, id, copyCols, pgx.CopyFromSlice(len(t.Rows), func(i int) ([]any, error) {
		vals := make([]any, 0, len(copyCols))
		vals = append(vals, int64(i+1))
		for _, c := range t.Columns {
			vals = append(vals, t.Rows[i].Get(c))
		}
		return vals, nil
	}))
	return err
}

// ensureSQL returns the statements creating the table and any missing
// columns. Existing columns are never dropped.
func ensureSQL(id pgx.Identifier, columns []string) []string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, pgx.Identifier{rowNumColumn}.Sanitize()+" BIGINT PRIMARY KEY")
	for _, c := range columns {
		defs = append(defs, pgx.Identifier{c}.Sanitize()+" TEXT NOT NULL DEFAULT ''")
	}

	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{id[0]}.Sanitize(),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", id.Sanitize(), strings.Join(defs, ", ")),
	}
	for _, c := range columns {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT NOT NULL DEFAULT ''",
			id.Sanitize(), pgx.Identifier{c}.Sanitize()))
	}
	return stmts
}

func selectSQL(id pgx.Identifier, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ", "), id.Sanitize(), pgx.Identifier{rowNumColumn}.Sanitize())
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

// unavailable marks connection-level failures with table.ErrUnavailable.
func unavailable(err error) error {
	if IsUnavailable(err) {
		return fmt.Errorf("%w: %w", table.ErrUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err is a connection-level failure.
func IsUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
