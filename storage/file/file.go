// Package file implements storage.FileBackend on top of the local
// filesystem, and storage.DataBackend for CSV-encoded tables, the one data
// format the core can read/write without an external codec.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/storage"
)

// Store roots all paths at a base directory on the local filesystem.
type Store struct {
	key    string
	base   string
	format string
}

var (
	_ storage.FileBackend = (*Store)(nil)
	_ storage.DataBackend = (*Store)(nil)
)

// New creates a file store rooted at base, creating it if necessary.
func New(key, base string) (*Store, error) {
	if key == "" {
		key = "file"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("file: create base dir: %w", err)
	}
	return &Store{key: key, base: base, format: "csv"}, nil
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return s.format }

func (s *Store) resolve(path string) string {
	return filepath.Join(s.base, filepath.Clean("/"+path))
}

func (s *Store) ReadBytes(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: storage.ErrNotFound}
		}
		return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: err}
	}
	return data, nil
}

func (s *Store) WriteBytes(_ context.Context, path string, data []byte, overwrite bool) error {
	full := s.resolve(path)
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return &storage.RequestError{Op: "write_bytes", Path: path, Err: os.ErrExist}
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &storage.RequestError{Op: "write_bytes", Path: path, Err: err}
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return &storage.RequestError{Op: "write_bytes", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Stat(_ context.Context, path string) (storage.Stat, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Stat{Path: path}, nil
		}
		return storage.Stat{}, &storage.RequestError{Op: "stat", Path: path, Err: err}
	}
	return storage.Stat{Path: path, IsDir: info.IsDir(), Size: info.Size(), Exists: true}, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	st, err := s.Stat(ctx, path)
	return st.Exists, err
}

func (s *Store) Mkdir(_ context.Context, path string) error {
	if err := os.MkdirAll(s.resolve(path), 0o755); err != nil {
		return &storage.RequestError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Rm(_ context.Context, path string) error {
	if err := os.RemoveAll(s.resolve(path)); err != nil {
		return &storage.RequestError{Op: "rm", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Ls(_ context.Context, path string) ([]storage.Stat, error) {
	entries, err := os.ReadDir(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &storage.RequestError{Op: "ls", Path: path, Err: storage.ErrNotFound}
		}
		return nil, &storage.RequestError{Op: "ls", Path: path, Err: err}
	}
	out := make([]storage.Stat, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, storage.Stat{
			Path:   filepath.Join(path, e.Name()),
			IsDir:  e.IsDir(),
			Size:   info.Size(),
			Exists: true,
		})
	}
	return out, nil
}

func (s *Store) ReadTable(_ context.Context, path, format string, schema graph.TableSchema, _ map[string]string) (storage.Table, error) {
	if format != "" && format != "csv" {
		return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: fmt.Errorf("unsupported format %q", format)}
	}
	f, err := os.Open(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: storage.ErrNotFound}
		}
		return storage.Table{}, &storage.RequestError{Op: "read_table", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: "empty or unreadable csv: " + err.Error()}
	}
	records, err := r.ReadAll()
	if err != nil {
		return storage.Table{}, &storage.ConformanceError{Path: path, Detail: err.Error()}
	}

	rows := make([]storage.Row, 0, len(records))
	for _, rec := range records {
		row := make(storage.Row, len(header))
		for i, name := range header {
			if i >= len(rec) {
				continue
			}
			row[name] = decodeField(schema, name, rec[i])
		}
		rows = append(rows, row)
	}
	return storage.Table{Schema: schema, Rows: rows}, nil
}

func (s *Store) WriteTable(_ context.Context, path, format string, table storage.Table, _ map[string]string, overwrite bool) error {
	if format != "" && format != "csv" {
		return &storage.RequestError{Op: "write_table", Path: path, Err: fmt.Errorf("unsupported format %q", format)}
	}
	full := s.resolve(path)
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return &storage.RequestError{Op: "write_table", Path: path, Err: os.ErrExist}
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	f, err := os.Create(full)
	if err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(table.Schema.Fields))
	for i, field := range table.Schema.Fields {
		header[i] = field.Name
	}
	if err := w.Write(header); err != nil {
		return &storage.RequestError{Op: "write_table", Path: path, Err: err}
	}
	for _, row := range table.Rows {
		rec := make([]string, len(header))
		for i, name := range header {
			rec[i] = encodeField(row[name])
		}
		if err := w.Write(rec); err != nil {
			return &storage.RequestError{Op: "write_table", Path: path, Err: err}
		}
	}
	w.Flush()
	return w.Error()
}

func decodeField(schema graph.TableSchema, name, raw string) any {
	field, ok := schema.ByName(name)
	if !ok {
		return raw
	}
	switch field.Type {
	case graph.FieldInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return raw
		}
		return v
	case graph.FieldFloat, graph.FieldDecimal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		return v
	case graph.FieldBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return raw
		}
		return v
	default:
		return raw
	}
}

func encodeField(v any) string {
	return fmt.Sprintf("%v", v)
}
