// Package storage defines the narrow storage interface node functions
// consume, and a registry that resolves storage keys to concrete backends.
// Backends themselves (memory, file, postgres, redis, sqlite, badger) are
// implementation detail behind this interface; the engine never imports a
// concrete backend package directly.
package storage

import (
	"context"

	"github.com/coreflow/coreflow/graph"
)

// Row is one record of a Table. Columns are addressed by schema field name;
// the core treats the value as opaque beyond the FieldType it was declared
// with.
type Row map[string]any

// Table is the narrow columnar shape the core reads and writes. Real
// columnar encodings (Arrow, Parquet) and the conformance layer that
// checks a Table against a graph.TableSchema live outside this module;
// Table here is the already-conformed, already-decoded in-memory form.
type Table struct {
	Schema graph.TableSchema
	Rows   []Row
}

// Stat describes one path entry as reported by a storage backend.
type Stat struct {
	Path    string
	IsDir   bool
	Size    int64
	Exists  bool
}

// FileStorage is the file-oriented half of the storage interface: opaque
// byte blobs plus directory operations.
type FileStorage interface {
	ReadBytes(ctx context.Context, path string) ([]byte, error)
	WriteBytes(ctx context.Context, path string, data []byte, overwrite bool) error
	Stat(ctx context.Context, path string) (Stat, error)
	Exists(ctx context.Context, path string) (bool, error)
	Mkdir(ctx context.Context, path string) error
	Rm(ctx context.Context, path string) error
	Ls(ctx context.Context, path string) ([]Stat, error)
}

// DataStorage is the table-oriented half of the storage interface.
type DataStorage interface {
	ReadTable(ctx context.Context, path, format string, schema graph.TableSchema, options map[string]string) (Table, error)
	WriteTable(ctx context.Context, path, format string, table Table, options map[string]string, overwrite bool) error
}

// Backend is a single named storage location combining both halves of the
// interface. A backend need only implement the half it is used for; the
// memory and file backends implement both, postgres/sqlite implement
// DataStorage, redis and badger implement FileStorage (as an opaque blob
// store).
type Backend interface {
	Key() string
	DefaultFormat() string
}

// FileBackend is a Backend that also serves file operations.
type FileBackend interface {
	Backend
	FileStorage
}

// DataBackend is a Backend that also serves table operations.
type DataBackend interface {
	Backend
	DataStorage
}

// Closer is implemented by backends that hold external resources (pool,
// connection, file handles) that must be released on shutdown.
type Closer interface {
	Close() error
}

// Registry resolves storage keys to concrete backends, implementing the
// get_file_storage/get_data_storage lookup the core relies on.
type Registry struct {
	file    map[string]FileStorage
	data    map[string]DataStorage
	backend map[string]Backend
	def     string
}

// NewRegistry creates an empty registry. defaultKey names the backend
// returned by DefaultStorageKey.
func NewRegistry(defaultKey string) *Registry {
	return &Registry{
		file:    make(map[string]FileStorage),
		data:    make(map[string]DataStorage),
		backend: make(map[string]Backend),
		def:     defaultKey,
	}
}

// RegisterFile adds a file-oriented backend under its own key.
func (r *Registry) RegisterFile(b FileBackend) {
	r.file[b.Key()] = b
	r.backend[b.Key()] = b
}

// RegisterData adds a table-oriented backend under its own key.
func (r *Registry) RegisterData(b DataBackend) {
	r.data[b.Key()] = b
	r.backend[b.Key()] = b
}

// GetFileStorage resolves key to a FileStorage implementation.
func (r *Registry) GetFileStorage(key string) (FileStorage, error) {
	if fs, ok := r.file[key]; ok {
		return fs, nil
	}
	return nil, &RequestError{Op: "get_file_storage", Path: key, Err: ErrNotFound}
}

// GetDataStorage resolves key to a DataStorage implementation.
func (r *Registry) GetDataStorage(key string) (DataStorage, error) {
	if ds, ok := r.data[key]; ok {
		return ds, nil
	}
	return nil, &RequestError{Op: "get_data_storage", Path: key, Err: ErrNotFound}
}

// DefaultStorageKey returns the key new outputs without an explicit
// storage selection are allocated against.
func (r *Registry) DefaultStorageKey() string {
	return r.def
}

// DefaultStorageFormat returns the table format new outputs use absent an
// explicit choice.
func (r *Registry) DefaultStorageFormat() string {
	if b, ok := r.backend[r.def]; ok {
		return b.DefaultFormat()
	}
	return "csv"
}

// CloseAll releases every registered backend that implements Closer,
// collecting the first error and continuing so a single stuck backend
// does not leak the rest.
func (r *Registry) CloseAll() error {
	var first error
	seen := make(map[Backend]bool)
	for _, b := range r.backend {
		if seen[b] {
			continue
		}
		seen[b] = true
		if c, ok := b.(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
