package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
)

// SetupTestStore returns an empty in-memory key-value store.
func SetupTestStore(t *testing.T) *kv.MemoryStore {
	t.Helper()
	return kv.NewMemory()
}

// TestContext returns a context with a reasonable timeout for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// ErrInjected is the default error returned by FlakyStore.
var ErrInjected = errors.New("injected store failure")

// FlakyStore wraps a kv.Store and fails selected operations.
type FlakyStore struct {
	kv.Store

	mu      sync.Mutex
	failGet error
	failSet error
	sets    int
}

// NewFlakyStore wraps inner.
func NewFlakyStore(inner kv.Store) *FlakyStore {
	return &FlakyStore{Store: inner}
}

// FailGets makes every Get return err (nil restores normal behavior).
func (f *FlakyStore) FailGets(err error) {
	f.mu.Lock()
	f.failGet = err
	f.mu.Unlock()
}

// FailSets makes every Set return err (nil restores normal behavior).
func (f *FlakyStore) FailSets(err error) {
	f.mu.Lock()
	f.failSet = err
	f.mu.Unlock()
}

// Sets returns the number of Set calls that reached the inner store.
func (f *FlakyStore) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *FlakyStore) Get(ctx context.Context, key string, dst any) error {
	f.mu.Lock()
	err := f.failGet
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Get(ctx, key, dst)
}

func (f *FlakyStore) Set(ctx context.Context, key string, v any) error {
	f.mu.Lock()
	err := f.failSet
	if err == nil {
		f.sets++
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Set(ctx, key, v)
}
