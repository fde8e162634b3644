// Package redis implements storage.FileBackend as an opaque blob store over
// Redis, suitable for small scratch outputs and job-scoped caches that
// should expire on their own.
package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coreflow/coreflow/storage"
)

// Store is a Redis-backed storage.FileBackend.
type Store struct {
	key    string
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.FileBackend = (*Store)(nil)
var _ storage.Closer = (*Store)(nil)

// Options configures a Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string        // backend key, default "redis"
	Prefix   string        // key prefix, default "coreflow:"
	TTL      time.Duration // 0 means no expiration
}

// New opens a client against a Redis instance.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return WithClient(client, opts.Key, opts.Prefix, opts.TTL)
}

// WithClient builds a Store around an existing client, useful for tests
// against miniredis.
func WithClient(client *redis.Client, key, prefix string, ttl time.Duration) *Store {
	if key == "" {
		key = "redis"
	}
	if prefix == "" {
		prefix = "coreflow:"
	}
	return &Store{key: key, client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) Key() string           { return s.key }
func (s *Store) DefaultFormat() string { return "bytes" }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) fullKey(path string) string {
	return s.prefix + path
}

func (s *Store) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.fullKey(path)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: storage.ErrNotFound}
		}
		return nil, &storage.RequestError{Op: "read_bytes", Path: path, Err: err}
	}
	return data, nil
}

func (s *Store) WriteBytes(ctx context.Context, path string, data []byte, overwrite bool) error {
	if !overwrite {
		n, err := s.client.Exists(ctx, s.fullKey(path)).Result()
		if err != nil {
			return &storage.RequestError{Op: "write_bytes", Path: path, Err: err}
		}
		if n > 0 {
			return &storage.RequestError{Op: "write_bytes", Path: path, Err: fmt.Errorf("path already exists")}
		}
	}
	if err := s.client.Set(ctx, s.fullKey(path), data, s.ttl).Err(); err != nil {
		return &storage.RequestError{Op: "write_bytes", Path: path, Err: err}
	}
	s.indexDir(ctx, path)
	return nil
}

func (s *Store) indexKey() string { return s.prefix + "\x00index" }

func (s *Store) indexDir(ctx context.Context, path string) {
	s.client.SAdd(ctx, s.indexKey(), path)
}

func (s *Store) Stat(ctx context.Context, path string) (storage.Stat, error) {
	n, err := s.client.Exists(ctx, s.fullKey(path)).Result()
	if err != nil {
		return storage.Stat{}, &storage.RequestError{Op: "stat", Path: path, Err: err}
	}
	if n == 0 {
		return storage.Stat{Path: path}, nil
	}
	size, err := s.client.StrLen(ctx, s.fullKey(path)).Result()
	if err != nil {
		return storage.Stat{}, &storage.RequestError{Op: "stat", Path: path, Err: err}
	}
	return storage.Stat{Path: path, Size: size, Exists: true}, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	st, err := s.Stat(ctx, path)
	return st.Exists, err
}

// Mkdir is a no-op: Redis has no directory concept, paths are just keys.
func (s *Store) Mkdir(context.Context, string) error { return nil }

func (s *Store) Rm(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, s.fullKey(path)).Err(); err != nil {
		return &storage.RequestError{Op: "rm", Path: path, Err: err}
	}
	s.client.SRem(ctx, s.indexKey(), path)
	return nil
}

func (s *Store) Ls(ctx context.Context, path string) ([]storage.Stat, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, &storage.RequestError{Op: "ls", Path: path, Err: err}
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	var out []storage.Stat
	for _, m := range members {
		if path == "" || path == "/" || strings.HasPrefix(m, prefix) {
			out = append(out, storage.Stat{Path: m, Exists: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
