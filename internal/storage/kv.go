// Package storage persists game saves, player settings and the high-score
// archive. Saves live in a durable key-value store behind the KV interface;
// scores go to Postgres when one is configured.
package storage

import (
	"context"
	"path"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a key or save slot does not exist. Corrupt
// payloads surface as ErrCorrupt so callers can discard them with a notice
// instead of failing the load.
var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt data")
)

// KV is the durable key-value store the save repository sits on. Every call
// can fail; callers degrade gracefully (skip the save, fall back to a fresh
// game) rather than crash.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns the keys matching a glob pattern, e.g. "game:*:slot:*".
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// MemoryKV is the in-process KV used by tests and the dependency-free
// "memory" storage backend.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key := range m.data {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, errors.Wrap(err, "invalid key pattern")
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
