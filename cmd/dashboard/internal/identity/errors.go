package identity

import (
	"errors"
	"strings"
)

// AuthError is a sign-in failure the user can act on. Message is safe to show.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Code
}

// IsAuthError reports whether err is an AuthError.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

const genericAuthMessage = "Could not sign you in. Please try again."

var authMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "Invalid email or password.",
	"INVALID_PASSWORD":            "Invalid email or password.",
	"INVALID_LOGIN_CREDENTIALS":   "Invalid email or password.",
	"INVALID_EMAIL":               "Please enter a valid email address.",
	"MISSING_PASSWORD":            "Please enter your password.",
	"USER_DISABLED":               "This account has been disabled. Contact an administrator.",
	"EMAIL_EXISTS":                "An account with this email already exists.",
	"WEAK_PASSWORD":               "Password must be at least 6 characters.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts. Please try again later.",
	"OPERATION_NOT_ALLOWED":       "This sign-in method is not enabled.",
	"INVALID_IDP_RESPONSE":        "Google sign-in failed. Please try again.",
	"UNAUTHORIZED_DOMAIN":         "Unauthorized domain. Please contact support.",
	"POPUP_CLOSED":                "Sign-in popup closed before completing. Please try again.",
	"TOKEN_EXPIRED":               "Your session has expired. Please sign in again.",
	"INVALID_REFRESH_TOKEN":       "Your session has expired. Please sign in again.",
	"USER_NOT_FOUND":              "Your session has expired. Please sign in again.",
}

// newAuthError maps a provider error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to an AuthError.
func newAuthError(raw string) *AuthError {
	code := strings.TrimSpace(raw)
	if i := strings.Index(code, " : "); i >= 0 {
		code = code[:i]
	}
	msg, ok := authMessages[code]
	if !ok {
		msg = genericAuthMessage
	}
	return &AuthError{Code: code, Message: msg}
}

// NewAuthError builds an AuthError for a known failure code.
func NewAuthError(code string) *AuthError {
	return newAuthError(code)
}
