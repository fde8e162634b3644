// Package sqlite implements storage.DataBackend on top of an embedded
// SQLite database, for single-host deployments that want a durable data
// store without running a separate database process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

// Store is a SQLite-backed storage.DataBackend.
type Store struct {
	key       string
	db        *sql.DB
	tableName string
}

var _ storage.DataBackend = (*Store)(nil)
var _ storage.Closer = (*Store)(nil)

// Options configures a SQLite connection.
type Options struct {
	Path      string
	Key       string
	TableName string // default "coreflow_tables"
}

// New opens (and creates if necessary) a SQLite database at opts.Path.
func New(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	key := opts.Key
	if key == "" {
		key = "sqlite"
	}
	tableName := opts.TableName
	if tableName == "" {
		tableName = "coreflow_tables"
	}

	s := &Store{key: key, db: db, tableName: tableName}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return "json" }

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			path TEXT PRIMARY KEY,
			schema TEXT NOT NULL,
			rows TEXT NOT NULL
		);
	`, s.tableName)
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ReadTable(ctx context.Context, path, _ string, schema graph.TableSchema, _ map[string]string) (storage.Table, error) {
	query := fmt.Sprintf(`SELECT schema, rows FROM %s WHERE path = ?`, s.tableName)
	row := s.db.QueryRowContext(ctx, query, path)

	var schemaJSON, rowsJSON string
	if err := row.Scan(&schemaJSON, &rowsJSON); err != nil {
		if err == sql.ErrNoRows {
			return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: storage.ErrNotFound}
		}
		return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: err}
	}

	var stored graph.TableSchema
	if err := json.Unmarshal([]byte(schemaJSON), &stored); err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: err.Error()}
	}
	if len(schema.Fields) > 0 && !stored.Equal(schema) {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: "stored schema does not match requested schema"}
	}

	var rows []storage.Row
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: err.Error()}
	}
	return storage.Table{Schema: stored, Rows: rows}, nil
}

func (s *Store) WriteTable(ctx context.Context, path, _ string, table storage.Table, _ map[string]string, overwrite bool) error {
	if !overwrite {
		var one int
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE path = ?`, s.tableName), path).Scan(&one)
		if err == nil {
			return &storage.RequestError{Op: "write_table", Path: path, Err: fmt.Errorf("path already exists")}
		}
		if err != sql.ErrNoRows {
			return &storage.RequestError{Op: "write_table", Path: path, Err: err}
		}
	}

	schemaJSON, err := json.Marshal(table.Schema)
	if err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	rowsJSON, err := json.Marshal(table.Rows)
	if err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (path, schema, rows) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET schema = excluded.schema, rows = excluded.rows
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, path, schemaJSON, rowsJSON); err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	return nil
}
