// Package autherr defines the error taxonomy shared by the authentication
// engine, the account lifecycle manager and the HTTP features.
//
// Kinds (ErrNotFound, ErrAlreadyExists, ...) are the values callers branch on
// with errors.Is. Specific errors such as ErrNoSuchUser carry the user-facing
// message and unwrap to their kind, so both
//
//	errors.Is(err, autherr.ErrNoSuchUser)
//	errors.Is(err, autherr.ErrNotFound)
//
// hold for a failed lookup.
package autherr

import (
	"context"
	"errors"
)

// Kinds.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrAlreadyVerified      = errors.New("already verified")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("verification required")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidInput         = errors.New("invalid input")

	// Collaborator failures. The cause is attached to the *Error.
	ErrStore   = errors.New("store failure")
	ErrMail    = errors.New("mail failure")
	ErrTimeout = errors.New("timeout")
)

// Error is a classified failure. Kind is one of the kind sentinels above,
// Op names the operation that failed, Msg is safe to show to a user and
// Cause is the underlying collaborator error, if any.
type Error struct {
	Kind  error
	Op    string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Authentication failures.
var (
	ErrNoSuchUser       = &Error{Kind: ErrNotFound, Msg: "Incorrect username or email"}
	ErrBadPassword      = &Error{Kind: ErrInvalidCredentials, Msg: "Incorrect password"}
	ErrEmailNotVerified = &Error{Kind: ErrVerificationRequired, Msg: "Email not verified"}
)

// Lifecycle failures.
var (
	ErrUserExists               = &Error{Kind: ErrAlreadyExists, Msg: "username already exists"}
	ErrEmailExists              = &Error{Kind: ErrAlreadyExists, Msg: "email already exists"}
	ErrEmailNotFound            = &Error{Kind: ErrNotFound, Msg: "no account uses that email"}
	ErrUserAlreadyVerified      = &Error{Kind: ErrAlreadyVerified, Msg: "account is already verified"}
	ErrInvalidVerificationToken = &Error{Kind: ErrInvalidToken, Msg: "invalid verification token"}
	ErrInvalidResetToken        = &Error{Kind: ErrInvalidToken, Msg: "invalid reset token"}
)

// ErrSessionUserMissing means the username held by a session no longer
// matches any user. Callers treat the session as expired.
var ErrSessionUserMissing = &Error{Kind: ErrNotFound, Msg: "session user no longer exists"}

// Invalid returns an ErrInvalidInput error with a user-facing message.
func Invalid(op, msg string) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Msg: msg}
}

// StoreFailure classifies a persistence error. Errors that are already
// classified pass through unchanged; deadline errors become ErrTimeout.
func StoreFailure(op string, err error) error {
	return classify(ErrStore, op, err)
}

// MailFailure classifies a mail transport error the same way StoreFailure does.
func MailFailure(op string, err error) error {
	return classify(ErrMail, op, err)
}

func classify(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &Error{Kind: kind, Op: op, Cause: err}
}

// IsCollaborator reports whether err is a store, mail or timeout failure,
// i.e. something the user did not cause and should not see details of.
func IsCollaborator(err error) bool {
	return errors.Is(err, ErrStore) || errors.Is(err, ErrMail) || errors.Is(err, ErrTimeout)
}

// Message returns the user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" && !IsCollaborator(err) {
		return ae.Msg
	}
	return fallback
}
