// internal/app/store/audit/store.go
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/stratagate/internal/app/store/kv"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
	"github.com/google/uuid"
)

// Key is the kv key holding the audit trail.
const Key = "audit"

// DefaultLimit is the number of events retained; older events are dropped.
const DefaultLimit = 1000

// Event categories
const (
	CategoryAuth    = "auth"
	CategoryAccount = "account"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUnverified    = "login_failed_unverified"
	EventLogout                   = "logout"
)

// Account lifecycle event types
const (
	EventUserRegistered         = "user_registered"
	EventRegistrationFailed     = "registration_failed"
	EventEmailVerified          = "email_verified"
	EventVerificationFailed     = "verification_failed"
	EventVerificationResent     = "verification_resent"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetCompleted = "password_reset_completed"
	EventPasswordResetFailed    = "password_reset_failed"
)

// Event represents an audit event.
type Event struct {
	ID        string    `bson:"id" json:"id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	UserID   string `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Username string `bson:"username,omitempty" json:"username,omitempty"`

	// Context
	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// Store keeps the most recent audit events in a single capped document.
type Store struct {
	kv    kv.Store
	limit int
	mu    sync.Mutex
}

// New creates an audit store retaining DefaultLimit events.
func New(store kv.Store) *Store {
	return NewWithLimit(store, DefaultLimit)
}

// NewWithLimit creates an audit store retaining at most limit events.
func NewWithLimit(store kv.Store, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{kv: store, limit: limit}
}

func (s *Store) load(ctx context.Context) ([]Event, error) {
	var events []Event
	err := s.kv.Get(ctx, Key, &events)
	if errors.Is(err, kv.ErrAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, autherr.StoreFailure("load audit events", err)
	}
	return events, nil
}

// Log appends an event, assigning an ID and timestamp when missing.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return err
	}
	events = append(events, event)
	if len(events) > s.limit {
		events = events[len(events)-s.limit:]
	}
	if err := s.kv.Set(ctx, Key, events); err != nil {
		return autherr.StoreFailure("save audit events", err)
	}
	return nil
}

// query returns up to limit events, newest first, that match keep.
func (s *Store) query(ctx context.Context, limit int, keep func(*Event) bool) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Event
	for i := len(events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out, nil
}

// GetRecent returns the most recent events, newest first.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Event, error) {
	return s.query(ctx, limit, func(*Event) bool { return true })
}

// GetByUser returns events for a user ID, newest first.
func (s *Store) GetByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	return s.query(ctx, limit, func(e *Event) bool { return e.UserID == userID })
}

// GetFailedLogins returns failed login events since the given time.
func (s *Store) GetFailedLogins(ctx context.Context, since time.Time, limit int) ([]Event, error) {
	return s.query(ctx, limit, func(e *Event) bool {
		if e.Timestamp.Before(since) {
			return false
		}
		switch e.EventType {
		case EventLoginFailedUserNotFound, EventLoginFailedWrongPassword, EventLoginFailedUnverified:
			return true
		}
		return false
	})
}
