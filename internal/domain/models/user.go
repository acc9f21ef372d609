// internal/domain/models/user.go
package models

import "time"

// User is an account record. All users live in a single "users" document
// in the key-value store.
//
// NOTE:
//   - VerificationToken is nil unless a verification email is pending; it is
//     always nil once Verified is true.
//   - ResetToken is omitted from the stored document when no reset is pending.
//   - Only the account lifecycle manager changes Verified, VerificationToken
//     and ResetToken.
type User struct {
	ID           string `bson:"id" json:"id"`
	Username     string `bson:"username" json:"username"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"password_hash"`
	IsAdmin      bool   `bson:"is_admin" json:"is_admin"`

	Verified          bool    `bson:"verified" json:"verified"`
	VerificationToken *string `bson:"verification_token" json:"verification_token"`
	ResetToken        *string `bson:"reset_token,omitempty" json:"reset_token,omitempty"`
	WelcomeEmailSent  bool    `bson:"welcome_email_sent" json:"welcome_email_sent"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PendingVerification reports whether a verification token is outstanding.
func (u *User) PendingVerification() bool {
	return u.VerificationToken != nil
}

// PendingReset reports whether a password reset token is outstanding.
func (u *User) PendingReset() bool {
	return u.ResetToken != nil
}
