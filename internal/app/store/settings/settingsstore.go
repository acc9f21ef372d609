// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/dalemusser/stratagate/internal/domain/models"
)

// Keys in the key-value store.
const (
	Key     = "settings"
	NameKey = "name"
	LogoKey = "logo"
)

// Store provides access to the process-wide settings document and the
// display values stored alongside it.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// New creates a new settings store.
func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// Get returns the settings document. If none has been written, it returns
// default settings without writing them.
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	settings, err := s.load(ctx)
	if errors.Is(err, kv.ErrAbsent) {
		return models.DefaultSettings(), nil
	}
	return settings, err
}

func (s *Store) load(ctx context.Context) (models.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	var settings models.Settings
	err := s.kv.Get(ctx, Key, &settings)
	if errors.Is(err, kv.ErrAbsent) {
		return models.Settings{}, err
	}
	if err != nil {
		return models.Settings{}, autherr.StoreFailure("load settings", err)
	}
	return settings, nil
}

// Exists checks if the settings document has been written.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := s.load(ctx)
	if errors.Is(err, kv.ErrAbsent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ensure writes default settings when the document is absent and reports
// whether it did. An existing document is never overwritten.
func (s *Store) Ensure(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.Exists(ctx)
	if err != nil || exists {
		return false, err
	}
	if err := s.save(ctx, models.DefaultSettings()); err != nil {
		return false, err
	}
	return true, nil
}

// Save replaces the settings document.
func (s *Store) Save(ctx context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, settings)
}

func (s *Store) save(ctx context.Context, settings models.Settings) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	now := time.Now().UTC()
	settings.UpdatedAt = &now
	if err := s.kv.Set(ctx, Key, settings); err != nil {
		return autherr.StoreFailure("save settings", err)
	}
	return nil
}

// SetForceVerify updates only the forceVerify flag.
func (s *Store) SetForceVerify(ctx context.Context, on bool) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load(ctx)
	if errors.Is(err, kv.ErrAbsent) {
		settings = models.DefaultSettings()
	} else if err != nil {
		return models.Settings{}, err
	}
	settings.ForceVerify = on
	if err := s.save(ctx, settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

// SiteInfo reads the "name" and "logo" keys. A missing name falls back to
// models.DefaultSiteName. The logo may be stored as a URL string or as a
// boolean, where true means models.DefaultLogoURL.
func (s *Store) SiteInfo(ctx context.Context) (models.SiteInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	info := models.SiteInfo{Name: models.DefaultSiteName}

	var name string
	err := s.kv.Get(ctx, NameKey, &name)
	switch {
	case err == nil && strings.TrimSpace(name) != "":
		info.Name = name
	case err != nil && !errors.Is(err, kv.ErrAbsent):
		return info, autherr.StoreFailure("load site name", err)
	}

	var logo any
	err = s.kv.Get(ctx, LogoKey, &logo)
	if err != nil && !errors.Is(err, kv.ErrAbsent) {
		return info, autherr.StoreFailure("load logo", err)
	}
	switch v := logo.(type) {
	case string:
		info.LogoURL = strings.TrimSpace(v)
	case bool:
		if v {
			info.LogoURL = models.DefaultLogoURL
		}
	}
	return info, nil
}

// SetSiteName writes the "name" key.
func (s *Store) SetSiteName(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	if err := s.kv.Set(ctx, NameKey, strings.TrimSpace(name)); err != nil {
		return autherr.StoreFailure("save site name", err)
	}
	return nil
}
