// Package timeouts provides centralized timeout values for calls to external
// collaborators.
//
// Every store read/write and every mail dispatch is bounded with
// context.WithTimeout using these values. A call that runs past its deadline
// surfaces as autherr.ErrTimeout.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Store: a single key-value get or set
//   - Mail: one outbound email, including the SMTP dial
//   - Tick: one registration policy reconciliation
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing  = 2 * time.Second
	DefaultStore = 5 * time.Second
	DefaultMail  = 15 * time.Second
	DefaultTick  = 10 * time.Second
)

var mu sync.RWMutex

var (
	ping  = DefaultPing
	store = DefaultStore
	mail  = DefaultMail
	tick  = DefaultTick
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Store returns the timeout for a single store operation.
func Store() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// Mail returns the timeout for a single email dispatch.
func Mail() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return mail
}

// Tick returns the timeout for one registration policy reconciliation.
func Tick() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return tick
}

// Config holds timeout configuration values.
// Zero values are ignored (current values are kept).
type Config struct {
	Ping  time.Duration
	Store time.Duration
	Mail  time.Duration
	Tick  time.Duration
}

// Configure sets custom timeout values. Call during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Store > 0 {
		store = cfg.Store
	}
	if cfg.Mail > 0 {
		mail = cfg.Mail
	}
	if cfg.Tick > 0 {
		tick = cfg.Tick
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	store = DefaultStore
	mail = DefaultMail
	tick = DefaultTick
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Store: store, Mail: mail, Tick: tick}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Mail(), d.log, "send verification email")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
