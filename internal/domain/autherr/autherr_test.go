package autherr_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/stratagate/internal/domain/autherr"
)

func TestSpecificErrorsMatchTheirKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"no such user", autherr.ErrNoSuchUser, autherr.ErrNotFound},
		{"bad password", autherr.ErrBadPassword, autherr.ErrInvalidCredentials},
		{"not verified", autherr.ErrEmailNotVerified, autherr.ErrVerificationRequired},
		{"user exists", autherr.ErrUserExists, autherr.ErrAlreadyExists},
		{"email exists", autherr.ErrEmailExists, autherr.ErrAlreadyExists},
		{"verify token", autherr.ErrInvalidVerificationToken, autherr.ErrInvalidToken},
		{"reset token", autherr.ErrInvalidResetToken, autherr.ErrInvalidToken},
		{"session user", autherr.ErrSessionUserMissing, autherr.ErrNotFound},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Errorf("%s: expected errors.Is to match kind %v", tc.name, tc.kind)
		}
		wrapped := fmt.Errorf("handler: %w", tc.err)
		if !errors.Is(wrapped, tc.err) {
			t.Errorf("%s: wrapped error lost identity", tc.name)
		}
	}
}

func TestVerificationRequiredIsNotInvalidCredentials(t *testing.T) {
	if errors.Is(autherr.ErrEmailNotVerified, autherr.ErrInvalidCredentials) {
		t.Error("verification failure must be distinguishable from a bad password")
	}
}

func TestMessages(t *testing.T) {
	if got := autherr.ErrNoSuchUser.Error(); got != "Incorrect username or email" {
		t.Errorf("Error(): got %q", got)
	}
	if got := autherr.ErrBadPassword.Error(); got != "Incorrect password" {
		t.Errorf("Error(): got %q", got)
	}
	if got := autherr.ErrEmailNotVerified.Error(); got != "Email not verified" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestStoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	err := autherr.StoreFailure("load users", cause)

	if !errors.Is(err, autherr.ErrStore) {
		t.Error("expected ErrStore kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be attached")
	}
	if !autherr.IsCollaborator(err) {
		t.Error("expected IsCollaborator")
	}
	if got := autherr.Message(err, "generic"); got != "generic" {
		t.Errorf("Message: got %q, want fallback", got)
	}
}

func TestStoreFailure_Deadline(t *testing.T) {
	err := autherr.StoreFailure("load users", fmt.Errorf("find: %w", context.DeadlineExceeded))
	if !errors.Is(err, autherr.ErrTimeout) {
		t.Error("expected ErrTimeout kind for deadline errors")
	}
	if errors.Is(err, autherr.ErrStore) {
		t.Error("deadline errors should not also be ErrStore")
	}
}

func TestStoreFailure_PassesClassifiedErrors(t *testing.T) {
	err := autherr.StoreFailure("insert", autherr.ErrUserExists)
	if err != autherr.ErrUserExists {
		t.Errorf("expected classified error to pass through, got %v", err)
	}
	if autherr.StoreFailure("noop", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestMailFailure(t *testing.T) {
	err := autherr.MailFailure("send welcome", errors.New("smtp down"))
	if !errors.Is(err, autherr.ErrMail) {
		t.Error("expected ErrMail kind")
	}
}
