// internal/app/system/routeset/routeset.go
package routeset

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Route identifies an HTTP endpoint by method and chi pattern.
type Route struct {
	Method  string
	Pattern string
}

func (r Route) String() string {
	return r.Method + " " + r.Pattern
}

// Set is a sorted, duplicate-free list of routes. Build one with NewSet.
type Set []Route

// NewSet returns the sorted, de-duplicated set of the given routes.
func NewSet(routes ...Route) Set {
	seen := make(map[Route]struct{}, len(routes))
	out := make(Set, 0, len(routes))
	for _, r := range routes {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Equal reports whether s and other hold the same routes.
func (s Set) Equal(other Set) bool {
	a, b := NewSet(s...), NewSet(other...)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether r is in s.
func (s Set) Contains(r Route) bool {
	for _, x := range s {
		if x == r {
			return true
		}
	}
	return false
}

// Table serves a set of routes that can be switched on and off while the
// server is running. Handlers are registered once; AddRoute, RemoveRoute and
// Apply only change which of them are reachable. Requests for inactive
// routes go to the fallback handler.
//
// Table is meant to be mounted as the NotFound handler of the main router so
// statically registered routes always take precedence.
type Table struct {
	mu       sync.Mutex
	handlers map[Route]http.Handler
	active   map[Route]struct{}
	fallback http.Handler
	logger   *zap.Logger

	mux atomic.Pointer[chi.Mux]
}

// New creates an empty Table. A nil fallback responds with 404.
func New(fallback http.Handler, logger *zap.Logger) *Table {
	if fallback == nil {
		fallback = http.NotFoundHandler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		handlers: make(map[Route]http.Handler),
		active:   make(map[Route]struct{}),
		fallback: fallback,
		logger:   logger,
	}
}

// Register associates a handler with a route. The route stays inactive until
// it is added.
func (t *Table) Register(r Route, h http.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[r] = h
	if _, ok := t.active[r]; ok {
		t.rebuildLocked()
	}
}

// AddRoute activates a registered route. Adding an active route is a no-op.
func (t *Table) AddRoute(r Route) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handlers[r]; !ok {
		return fmt.Errorf("routeset: no handler registered for %s", r)
	}
	if _, ok := t.active[r]; ok {
		return nil
	}
	t.active[r] = struct{}{}
	t.rebuildLocked()
	t.logger.Info("route enabled", zap.String("route", r.String()))
	return nil
}

// RemoveRoute deactivates a route. Removing an inactive route is a no-op.
func (t *Table) RemoveRoute(r Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[r]; !ok {
		return
	}
	delete(t.active, r)
	t.rebuildLocked()
	t.logger.Info("route disabled", zap.String("route", r.String()))
}

// Apply makes want the active set. It reports whether anything changed.
// Routes in want without a registered handler cause an error and leave the
// table unchanged.
func (t *Table) Apply(want Set) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range want {
		if _, ok := t.handlers[r]; !ok {
			return false, fmt.Errorf("routeset: no handler registered for %s", r)
		}
	}
	if t.activeLocked().Equal(want) {
		return false, nil
	}

	t.active = make(map[Route]struct{}, len(want))
	for _, r := range want {
		t.active[r] = struct{}{}
	}
	t.rebuildLocked()

	routes := make([]string, 0, len(want))
	for _, r := range NewSet(want...) {
		routes = append(routes, r.String())
	}
	t.logger.Info("active routes changed", zap.Strings("routes", routes))
	return true, nil
}

// Routes returns a snapshot of the active routes.
func (t *Table) Routes() Set {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

// ServeHTTP dispatches to the active routes, or the fallback.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := t.mux.Load()
	if mux == nil {
		t.fallback.ServeHTTP(w, r)
		return
	}
	// The outer router's context already recorded its own (failed) match.
	rctx := chi.NewRouteContext()
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	mux.ServeHTTP(w, r)
}

func (t *Table) activeLocked() Set {
	routes := make([]Route, 0, len(t.active))
	for r := range t.active {
		routes = append(routes, r)
	}
	return NewSet(routes...)
}

func (t *Table) rebuildLocked() {
	if len(t.active) == 0 {
		t.mux.Store(nil)
		return
	}
	mux := chi.NewRouter()
	mux.NotFound(t.fallback.ServeHTTP)
	mux.MethodNotAllowed(t.fallback.ServeHTTP)
	for r := range t.active {
		mux.Method(r.Method, r.Pattern, t.handlers[r])
	}
	t.mux.Store(mux)
}
