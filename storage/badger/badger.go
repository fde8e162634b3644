// Package badger implements storage.FileBackend as an opaque blob store
// over an embedded BadgerDB, for single-host deployments that want durable
// scratch storage without a SQL engine.
package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	bdg "github.com/dgraph-io/badger/v4"

	"github.com/coreflow/coreflow/storage"
)

// Store is a BadgerDB-backed storage.FileBackend.
type Store struct {
	key string
	db  *bdg.DB
}

var _ storage.FileBackend = (*Store)(nil)
var _ storage.Closer = (*Store)(nil)

// Options configures a Badger database.
type Options struct {
	Dir string
	Key string
}

// New opens (creating if necessary) a Badger database at opts.Dir.
func New(opts Options) (*Store, error) {
	db, err := bdg.Open(bdg.DefaultOptions(opts.Dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	key := opts.Key
	if key == "" {
		key = "badger"
	}
	return &Store{key: key, db: db}, nil
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return "bytes" }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ReadBytes(_ context.Context, path string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *bdg.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if err == bdg.ErrKeyNotFound {
			return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: storage.ErrNotFound}
		}
		return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: err}
	}
	return out, nil
}

func (s *Store) WriteBytes(_ context.Context, path string, data []byte, overwrite bool) error {
	return s.db.Update(func(txn *bdg.Txn) error {
		if !overwrite {
			if _, err := txn.Get([]byte(path)); err == nil {
				return &storage.RequestError{Op: "write_bytes", Path: path, Err: fmt.Errorf("path already exists")}
			}
		}
		return txn.Set([]byte(path), data)
	})
}

func (s *Store) Stat(_ context.Context, path string) (storage.Stat, error) {
	var st storage.Stat
	err := s.db.View(func(txn *bdg.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == bdg.ErrKeyNotFound {
			st = storage.Stat{Path: path}
			return nil
		}
		if err != nil {
			return err
		}
		st = storage.Stat{Path: path, Size: item.ValueSize(), Exists: true}
		return nil
	})
	if err != nil {
		return storage.Stat{}, &storage.RequestError{Op: "stat", Path: path, Err: err}
	}
	return st, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	st, err := s.Stat(ctx, path)
	return st.Exists, err
}

// Mkdir is a no-op: Badger is a flat key-value store.
func (s *Store) Mkdir(context.Context, string) error { return nil }

func (s *Store) Rm(_ context.Context, path string) error {
	err := s.db.Update(func(txn *bdg.Txn) error {
		return txn.Delete([]byte(path))
	})
	if err != nil {
		return &storage.RequestError{Op: "rm", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Ls(_ context.Context, path string) ([]storage.Stat, error) {
	prefix := strings.TrimSuffix(path, "/") + "/"
	if path == "" || path == "/" {
		prefix = ""
	}
	var out []storage.Stat
	err := s.db.View(func(txn *bdg.Txn) error {
		it := txn.NewIterator(bdg.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			out = append(out, storage.Stat{Path: string(item.Key()), Size: item.ValueSize(), Exists: true})
		}
		return nil
	})
	if err != nil {
		return nil, &storage.RequestError{Op: "ls", Path: path, Err: err}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
