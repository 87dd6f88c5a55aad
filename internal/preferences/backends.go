package preferences

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/redis/go-redis/v9"
)

// Backend names
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options selects and configures a backend
type Options struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
}

// Open creates the configured backend
func Open(opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryKV(), nil
	case BackendFile:
		return NewFileKV(opts.Path)
	case BackendRedis:
		return NewRedisKV(redis.NewClient(&redis.Options{Addr: opts.RedisAddr, DB: opts.RedisDB})), nil
	default:
		return nil, fmt.Errorf("unknown preference backend %q", opts.Backend)
	}
}

// MemoryKV keeps values for the process lifetime
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// FileKV stores values in a flat TOML table
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV uses path, creating its directory if needed
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("preference file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preference dir: %w", err)
	}
	return &FileKV{path: path}, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := toml.Marshal(values)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileKV) Close() error { return nil }

// load reads the file; a missing file is an empty table
func (f *FileKV) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return values, nil
}

// RedisKV stores values under a key prefix
type RedisKV struct {
	client *redis.Client
	prefix string
}

const redisPrefix = "foxsearch:prefs:"

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client, prefix: redisPrefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
