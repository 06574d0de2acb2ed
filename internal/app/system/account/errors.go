package account

import (
	"errors"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/store/emailverify"
	"github.com/dalemusser/couponhub/internal/app/system/avatars"
)

var (
	ErrUserNotFound           = errors.New("account: user not found")
	ErrNotAdmin               = errors.New("account: user is not an admin")
	ErrCurrentEmailUnverified = errors.New("account: current email is not verified")
	ErrNewEmailUnverified     = errors.New("account: new email is not verified")
	ErrInvalidToken           = errors.New("account: verification link is invalid or expired")
	ErrInvalidUsername        = errors.New("account: invalid username")
	ErrWeakPassword           = errors.New("account: password too short")
)

// Auth error codes.
const (
	CodeEmailInUse          = "email-already-in-use"
	CodeInvalidEmail        = "invalid-email"
	CodeRequiresRecentLogin = "requires-recent-login"
	CodeInvalidCredential   = "invalid-credential"
)

// AuthError is a credential or identity failure identified by a code.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return "account: " + e.Code
}

func authError(code string) error {
	return &AuthError{Code: code}
}

// IsCode reports whether err is an AuthError with code.
func IsCode(err error, code string) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == code
}

// UnknownMessage is shown for any error without a specific message.
const UnknownMessage = "An unknown error occurred. Please try again."

var codeMessages = map[string]string{
	CodeEmailInUse:          "The email address is already in use by another account.",
	CodeInvalidEmail:        "The email address is not valid.",
	CodeRequiresRecentLogin: "The user must reauthenticate before this operation can be executed.",
	CodeInvalidCredential:   "The provided credentials are invalid. Please check your current password.",
}

var errMessages = []struct {
	err error
	msg string
}{
	{ErrUserNotFound, "No user found with this email."},
	{ErrNotAdmin, "Access denied: User is not an admin."},
	{ErrCurrentEmailUnverified, "Please verify your current email before changing to a new email."},
	{ErrNewEmailUnverified, "The new email address has not been verified yet."},
	{ErrInvalidToken, "This verification link is invalid or has expired."},
	{ErrInvalidUsername, "Username must be between 2 and 30 characters."},
	{ErrWeakPassword, "Password must be at least 8 characters."},
	{emailverify.ErrTooManyRequests, "Too many verification emails requested. Please try again later."},
	{avatars.ErrUnsupportedType, "Profile pictures must be PNG, JPEG, GIF or WebP images."},
	{avatars.ErrTooLarge, "Profile pictures must be 5 MB or smaller."},
}

// Message maps err to the text shown to the user.
func Message(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		if msg, ok := codeMessages[ae.Code]; ok {
			return msg
		}
		return UnknownMessage
	}
	for _, m := range errMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return UnknownMessage
}

// HTTPStatus maps err to the status a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound),
		IsCode(err, CodeInvalidCredential),
		IsCode(err, CodeRequiresRecentLogin):
		return http.StatusUnauthorized
	case errors.Is(err, emailverify.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, avatars.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case IsCode(err, CodeEmailInUse),
		IsCode(err, CodeInvalidEmail),
		errors.Is(err, ErrCurrentEmailUnverified),
		errors.Is(err, ErrNewEmailUnverified),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, avatars.ErrUnsupportedType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
