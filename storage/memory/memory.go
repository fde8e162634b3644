// Package memory implements an in-process storage.FileBackend and
// storage.DataBackend, useful for tests and for scratch/intermediate
// outputs that never need to survive the job.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

var errAlreadyExists = errors.New("path already exists")

// Store is an in-memory storage backend implementing both halves of the
// storage interface.
type Store struct {
	key    string
	format string

	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	tables map[string]storage.Table
}

var (
	_ storage.FileBackend = (*Store)(nil)
	_ storage.DataBackend = (*Store)(nil)
)

// New creates an empty memory store under the given key.
func New(key string) *Store {
	if key == "" {
		key = "memory"
	}
	return &Store{
		key:    key,
		format: "csv",
		files:  make(map[string][]byte),
		dirs:   map[string]bool{"/": true},
		tables: make(map[string]storage.Table),
	}
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return s.format }

func (s *Store) ReadBytes(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: storage.ErrNotFound}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *Store) WriteBytes(_ context.Context, path string, data []byte, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[path]; exists && !overwrite {
		return &storage.RequestError{Op: "write_bytes", Path: path, Err: errAlreadyExists}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[path] = cp
	s.markParents(path)
	return nil
}

func (s *Store) Stat(_ context.Context, path string) (storage.Stat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.files[path]; ok {
		return storage.Stat{Path: path, Size: int64(len(data)), Exists: true}, nil
	}
	if s.dirs[path] {
		return storage.Stat{Path: path, IsDir: true, Exists: true}, nil
	}
	return storage.Stat{Path: path}, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	st, err := s.Stat(ctx, path)
	return st.Exists, err
}

func (s *Store) Mkdir(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[path] = true
	return nil
}

func (s *Store) Rm(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	delete(s.tables, path)
	delete(s.dirs, path)
	return nil
}

func (s *Store) Ls(_ context.Context, path string) ([]storage.Stat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Stat
	for p, data := range s.files {
		if isChildOf(path, p) {
			out = append(out, storage.Stat{Path: p, Size: int64(len(data)), Exists: true})
		}
	}
	for p := range s.dirs {
		if p != path && isChildOf(path, p) {
			out = append(out, storage.Stat{Path: p, IsDir: true, Exists: true})
		}
	}
	return out, nil
}

func (s *Store) ReadTable(_ context.Context, path, _ string, schema graph.TableSchema, _ map[string]string) (storage.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tbl, ok := s.tables[path]
	if !ok {
		return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: storage.ErrNotFound}
	}
	if len(schema.Fields) > 0 && !tbl.Schema.Equal(schema) {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: "stored schema does not match requested schema"}
	}
	return tbl, nil
}

func (s *Store) WriteTable(_ context.Context, path, _ string, table storage.Table, _ map[string]string, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[path]; exists && !overwrite {
		return &storage.RequestError{Op: "write_table", Path: path, Err: errAlreadyExists}
	}
	s.tables[path] = table
	s.markParents(path)
	return nil
}

func (s *Store) markParents(path string) {
	dir := parentDir(path)
	for dir != "" && dir != "/" {
		s.dirs[dir] = true
		dir = parentDir(dir)
	}
	s.dirs["/"] = true
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

func isChildOf(parent, path string) bool {
	if parent == "" || parent == "/" {
		return parentDir(path) == "/" || parentDir(path) == ""
	}
	return parentDir(path) == parent
}
