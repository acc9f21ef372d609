package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps documents in process memory. Values are stored as JSON
// so callers never share references with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	b, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return ErrAbsent
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("kv decode %q: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv encode %q: %w", key, err)
	}
	s.mu.Lock()
	s.docs[key] = b
	s.mu.Unlock()
	return nil
}

// Delete removes key. Used by tests and the admin CLI.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
}

// Raw returns the stored JSON for key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[key]
	return b, ok
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
