// internal/app/system/viewdata/messages.go
package viewdata

// Redirect codes carried in ?success= and ?error=.
const (
	SuccessAccountCreated          = "AccountCreated"
	SuccessAccountCreateEmailSent  = "AccountcreateEmailSent"
	SuccessEmailVerified           = "EmailVerified"
	SuccessVerificationEmailResent = "VerificationEmailResent"
	SuccessPasswordSent            = "PasswordSent"
	SuccessPasswordReset           = "PasswordReset"

	ErrorUserNotVerified          = "UserNotVerified"
	ErrorInvalidCredentials       = "InvalidCredentials"
	ErrorLoginFailed              = "LoginFailed"
	ErrorUserExists               = "UserExists"
	ErrorRegistrationFailed       = "RegistrationFailed"
	ErrorInvalidVerificationToken = "InvalidVerificationToken"
	ErrorUserNotFound             = "UserNotFound"
	ErrorUserAlreadyVerified      = "UserAlreadyVerified"
	ErrorEmailNotFound            = "EmailNotFound"
	ErrorPasswordResetFailed      = "PasswordResetFailed"
	ErrorPasswordReset            = "PasswordReset"
	ErrorResendFailed             = "ResendFailed"
	ErrorPasswordRequired         = "PasswordRequired"
)

var successMessages = map[string]string{
	SuccessAccountCreated:          "Your account has been created. You can sign in now.",
	SuccessAccountCreateEmailSent:  "Your account has been created. Check your email to verify your address.",
	SuccessEmailVerified:           "Your email address has been verified. You can sign in now.",
	SuccessVerificationEmailResent: "A new verification email is on its way.",
	SuccessPasswordSent:            "Check your email for a link to reset your password.",
	SuccessPasswordReset:           "Your password has been reset. You can sign in with the new password.",
}

var errorMessages = map[string]string{
	ErrorUserNotVerified:          "Please verify your email address before signing in.",
	ErrorInvalidCredentials:       "Invalid username, email or password.",
	ErrorLoginFailed:              "Sign in failed. Please try again.",
	ErrorUserExists:               "That username or email is already registered.",
	ErrorRegistrationFailed:       "Registration failed. Please try again.",
	ErrorInvalidVerificationToken: "That verification link is invalid or has already been used.",
	ErrorUserNotFound:             "No account uses that email address.",
	ErrorUserAlreadyVerified:      "That account is already verified.",
	ErrorEmailNotFound:            "No account uses that email address.",
	ErrorPasswordResetFailed:      "We could not send a reset email. Please try again.",
	ErrorPasswordReset:            "That reset link is invalid or has already been used.",
	ErrorResendFailed:             "We could not send a verification email. Please try again.",
	ErrorPasswordRequired:         "Please enter a new password.",
}

// SuccessMessage returns the text for a success code, or "" for unknown codes.
func SuccessMessage(code string) string {
	return successMessages[code]
}

// ErrorMessage returns the text for an error code, or "" for unknown codes.
func ErrorMessage(code string) string {
	return errorMessages[code]
}
