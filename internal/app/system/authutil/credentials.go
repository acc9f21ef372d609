package authutil

import (
	"errors"
	"strings"
)

// Registration input errors.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameHasAt    = errors.New("username must not contain '@'")
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("email address is not valid")
	ErrPasswordRequired = errors.New("password is required")
)

// RegistrationInput is the raw form input for a new account.
type RegistrationInput struct {
	Username string
	Email    string
	Password string
}

// Validate checks that all fields are present and well formed. Usernames may
// not contain '@' because login treats any identifier with '@' as an email.
// Values are compared exactly later, so no case folding happens here.
func (in RegistrationInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return ErrUsernameRequired
	case strings.Contains(in.Username, "@"):
		return ErrUsernameHasAt
	case strings.TrimSpace(in.Email) == "":
		return ErrEmailRequired
	case !isValidEmail(in.Email):
		return ErrInvalidEmail
	case in.Password == "":
		return ErrPasswordRequired
	}
	return nil
}

// IsValidEmail performs a basic shape check on an email address.
func IsValidEmail(email string) bool {
	return isValidEmail(email)
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	if dot <= 0 || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
