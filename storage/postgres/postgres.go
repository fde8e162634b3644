// Package postgres implements storage.DataBackend on top of PostgreSQL,
// storing each written table as a JSONB row array under its path so the
// core's narrow table shape survives round-trips without a schema
// migration per dataset.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

// DBPool is the subset of *pgxpool.Pool the store needs, narrow enough to
// be satisfied by pgxmock in tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store is a PostgreSQL-backed storage.DataBackend.
type Store struct {
	key       string
	pool      DBPool
	tableName string
}

var _ storage.DataBackend = (*Store)(nil)
var _ storage.Closer = (*Store)(nil)

// Options configures a Postgres connection.
type Options struct {
	ConnString string
	Key        string
	TableName  string // default "coreflow_tables"
}

// New opens a connection pool and ensures the backing table exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	s := WithPool(pool, opts.Key, opts.TableName)
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// WithPool builds a Store around an existing pool, useful for tests with a
// mock pool.
func WithPool(pool DBPool, key, tableName string) *Store {
	if key == "" {
		key = "postgres"
	}
	if tableName == "" {
		tableName = "coreflow_tables"
	}
	return &Store{key: key, pool: pool, tableName: tableName}
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return "jsonb" }

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			path TEXT PRIMARY KEY,
			schema JSONB NOT NULL,
			rows JSONB NOT NULL
		);
	`, s.tableName)
	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type encodedSchema struct {
	Fields []encodedField `json:"fields"`
}

type encodedField struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Optional bool   `json:"optional"`
}

func encodeSchema(s graph.TableSchema) encodedSchema {
	fields := make([]encodedField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = encodedField{Name: f.Name, Type: int(f.Type), Optional: f.Optional}
	}
	return encodedSchema{Fields: fields}
}

func decodeSchema(e encodedSchema) graph.TableSchema {
	fields := make([]graph.Field, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = graph.Field{Name: f.Name, Type: graph.FieldType(f.Type), Optional: f.Optional}
	}
	return graph.TableSchema{Fields: fields}
}

func (s *Store) ReadTable(ctx context.Context, path, _ string, schema graph.TableSchema, _ map[string]string) (storage.Table, error) {
	query := fmt.Sprintf(`SELECT schema, rows FROM %s WHERE path = $1`, s.tableName)
	row := s.pool.QueryRow(ctx, query, path)

	var schemaJSON, rowsJSON []byte
	if err := row.Scan(&schemaJSON, &rowsJSON); err != nil {
		if err == pgx.ErrNoRows {
			return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: storage.ErrNotFound}
		}
		return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: err}
	}

	var enc encodedSchema
	if err := json.Unmarshal(schemaJSON, &enc); err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: err.Error()}
	}
	stored := decodeSchema(enc)
	if len(schema.Fields) > 0 && !stored.Equal(schema) {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: "stored schema does not match requested schema"}
	}

	var rows []storage.Row
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: err.Error()}
	}
	return storage.Table{Schema: stored, Rows: rows}, nil
}

func (s *Store) WriteTable(ctx context.Context, path, _ string, table storage.Table, _ map[string]string, overwrite bool) error {
	if !overwrite {
		existsQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE path = $1`, s.tableName)
		var one int
		err := s.pool.QueryRow(ctx, existsQuery, path).Scan(&one)
		if err == nil {
			return &storage.RequestError{Op: "write_table", Path: path, Err: fmt.Errorf("path already exists")}
		}
		if err != pgx.ErrNoRows {
			return &storage.RequestError{Op: "write_table", Path: path, Err: err}
		}
	}

	schemaJSON, err := json.Marshal(encodeSchema(table.Schema))
	if err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	rowsJSON, err := json.Marshal(table.Rows)
	if err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (path, schema, rows) VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET schema = EXCLUDED.schema, rows = EXCLUDED.rows
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, path, schemaJSON, rowsJSON); err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	return nil
}
