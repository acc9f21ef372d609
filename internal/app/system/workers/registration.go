// internal/app/system/workers/registration.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/stratagate/internal/app/policy/regpolicy"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/routeset"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the registration policy is re-read.
const DefaultPollInterval = time.Second

// PolicySettings is what the watcher needs from the settings store.
type PolicySettings interface {
	Ensure(ctx context.Context) (bool, error)
	Get(ctx context.Context) (models.Settings, error)
}

// RouteApplier switches the active dynamic routes.
type RouteApplier interface {
	Apply(want routeset.Set) (bool, error)
}

// RegistrationWatcher is a background worker that keeps the registration
// routes in line with the forceVerify setting.
type RegistrationWatcher struct {
	settings PolicySettings
	routes   RouteApplier
	log      *zap.Logger
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRegistrationWatcher creates a new watcher. A non-positive interval uses
// DefaultPollInterval.
func NewRegistrationWatcher(settings PolicySettings, routes RouteApplier, logger *zap.Logger, interval time.Duration) *RegistrationWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &RegistrationWatcher{
		settings: settings,
		routes:   routes,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start reconciles once, then begins the background loop.
func (w *RegistrationWatcher) Start() {
	w.tickWithTimeout()

	w.wg.Add(1)
	go w.run()
	w.log.Info("registration watcher started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *RegistrationWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("registration watcher stopped")
	})
}

func (w *RegistrationWatcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tickWithTimeout()
		}
	}
}

func (w *RegistrationWatcher) tickWithTimeout() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Tick(), w.log, "registration policy tick")
	defer cancel()
	_ = w.Tick(ctx)
}

// Tick performs one reconciliation: it creates the settings record when
// missing, reads it, and applies the resulting route set. A failed tick
// leaves the active routes as they were.
func (w *RegistrationWatcher) Tick(ctx context.Context) (err error) {
	defer func() { metrics.PolicyTick(err) }()

	created, err := w.settings.Ensure(ctx)
	if err != nil {
		w.log.Error("failed to ensure settings", zap.Error(err))
		return err
	}
	if created {
		w.log.Info("created default settings")
	}

	s, err := w.settings.Get(ctx)
	if err != nil {
		w.log.Error("failed to read settings", zap.Error(err))
		return err
	}

	changed, err := w.routes.Apply(regpolicy.Desired(s))
	if err != nil {
		w.log.Error("failed to apply registration routes", zap.Error(err))
		return err
	}
	metrics.SetRegistrationEnabled(regpolicy.Enabled(s))
	if changed {
		w.log.Info("registration routes updated", zap.Bool("enabled", regpolicy.Enabled(s)))
	}
	return nil
}
