package authutil

import (
	"errors"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

var cost atomic.Int64

func init() {
	cost.Store(int64(bcrypt.DefaultCost))
}

// SetCost sets the bcrypt cost used by HashPassword. Values outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func SetCost(c int) {
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		c = bcrypt.DefaultCost
	}
	cost.Store(int64(c))
}

// Cost returns the bcrypt cost used by HashPassword.
func Cost() int {
	return int(cost.Load())
}

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), Cost())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. The comparison is
// constant-time; a malformed hash never matches.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
