// internal/app/store/users/userstore.go
package userstore

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
	"github.com/google/uuid"
)

// Key is the kv key holding the array of all users.
const Key = "users"

// ErrNotFound is returned by lookups that match no user.
var ErrNotFound = &autherr.Error{Kind: autherr.ErrNotFound, Msg: "user not found"}

// Store reads and writes the "users" document.
//
// The backend only offers whole-document get/set, so every mutation re-reads
// the full array, changes one record and writes the array back. Mutations are
// serialized within this process; writers in other processes still race
// last-writer-wins.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// List returns every user. A missing "users" key is an empty list.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	var users []models.User
	err := s.kv.Get(ctx, Key, &users)
	if errors.Is(err, kv.ErrAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, autherr.StoreFailure("load users", err)
	}
	return users, nil
}

func (s *Store) save(ctx context.Context, users []models.User) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Store())
	defer cancel()

	if users == nil {
		users = []models.User{}
	}
	if err := s.kv.Set(ctx, Key, users); err != nil {
		return autherr.StoreFailure("save users", err)
	}
	return nil
}

// find returns a copy of the first user matching pred.
func (s *Store) find(ctx context.Context, pred func(*models.User) bool) (*models.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if pred(&users[i]) {
			u := users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ByID looks up a user by id.
func (s *Store) ByID(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.ID == id })
}

// ByUsername looks up a user by exact username.
func (s *Store) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.Username == username })
}

// ByEmail looks up a user by exact email.
func (s *Store) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.Email == email })
}

// ByIdentifier treats identifier as an email when it contains '@' and as a
// username otherwise. Matching is exact.
func (s *Store) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if IsEmail(identifier) {
		return s.ByEmail(ctx, identifier)
	}
	return s.ByUsername(ctx, identifier)
}

// ByVerificationToken finds the user whose pending verification token equals token.
func (s *Store) ByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.find(ctx, func(u *models.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

// ByResetToken finds the user whose pending reset token equals token.
func (s *Store) ByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.find(ctx, func(u *models.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token
	})
}

// Exists reports which of username and email are already taken.
func (s *Store) Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	users, err := s.List(ctx)
	if err != nil {
		return false, false, err
	}
	usernameTaken, emailTaken = conflicts(users, username, email)
	return usernameTaken, emailTaken, nil
}

func conflicts(users []models.User, username, email string) (usernameTaken, emailTaken bool) {
	for i := range users {
		if users[i].Username == username {
			usernameTaken = true
		}
		if users[i].Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken
}

// Insert appends u after re-checking uniqueness under the write lock.
// An empty ID is assigned a new UUID. Returns autherr.ErrUserExists or
// autherr.ErrEmailExists on conflict, in which case nothing is written.
func (s *Store) Insert(ctx context.Context, u models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	usernameTaken, emailTaken := conflicts(users, u.Username, u.Email)
	if usernameTaken {
		return nil, autherr.ErrUserExists
	}
	if emailTaken {
		return nil, autherr.ErrEmailExists
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if err := s.save(ctx, append(users, u)); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update re-reads the user list, applies mutate to the user with the given id
// and writes the list back. If mutate returns an error nothing is written.
func (s *Store) Update(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range users {
		if users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	u := users[idx]
	if err := mutate(&u); err != nil {
		return nil, err
	}
	u.ID = id
	u.UpdatedAt = time.Now().UTC()
	users[idx] = u

	if err := s.save(ctx, users); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the user with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.List(ctx)
	if err != nil {
		return err
	}
	out := users[:0]
	found := false
	for _, u := range users {
		if u.ID == id {
			found = true
			continue
		}
		out = append(out, u)
	}
	if !found {
		return ErrNotFound
	}
	return s.save(ctx, out)
}

// IsEmail reports whether identifier should be matched against email.
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
