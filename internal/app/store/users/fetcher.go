package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/domain/autherr"
)

// Fetcher implements auth.UserFetcher. Every call reads the users document,
// so a session always reflects the account's current state.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher backed by the given store.
func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

// FetchUser resolves a session username. It returns
// autherr.ErrSessionUserMissing when no such user exists anymore.
func (f *Fetcher) FetchUser(ctx context.Context, username string) (*auth.SessionUser, error) {
	u, err := f.store.ByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, autherr.ErrSessionUserMissing
	}
	if err != nil {
		return nil, err
	}
	return &auth.SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		Verified: u.Verified,
	}, nil
}
