// Package storage persists templates, history and service keys behind a key to blob store.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/creative-compliance/internal/observability"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// BlobStore is a flat key to blob store
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// OpenOptions selects and configures a backend
type OpenOptions struct {
	Backend     string
	Path        string
	RedisAddr   string
	DatabaseURL string
	Logger      *observability.Logger
}

// Open builds the configured backend. An empty backend means badger when a path is set, memory otherwise.
func Open(ctx context.Context, opts OpenOptions) (BlobStore, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendMemory
		if opts.Path != "" {
			backend = BackendBadger
		}
	}
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBadger:
		return OpenBadger(BadgerConfig{Path: opts.Path, SyncWrites: true, Logger: opts.Logger})
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{Addr: opts.RedisAddr})
	case BackendPostgres:
		return ConnectPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// MemoryStore keeps blobs in a map
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
