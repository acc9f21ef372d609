// internal/app/store/kv/kv.go
//
// Package kv is the persistence engine boundary: a document store addressed
// by string keys with simple get/set semantics.
//
// Keys used by this application:
//   - "users"    – array of models.User
//   - "settings" – models.Settings
//   - "name"     – application display name (string)
//   - "logo"     – logo URL (string) or a boolean
package kv

import (
	"context"
	"errors"
)

// ErrAbsent is returned by Get when the key has never been set.
var ErrAbsent = errors.New("kv: key absent")

// Store is a get/set-by-key document store.
//
// Get decodes the stored document into dst (a pointer). Set replaces the
// whole document stored under key. Implementations are safe for concurrent
// use; they do not serialize read-modify-write sequences.
type Store interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
}

// Pinger is implemented by backends that can check connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
