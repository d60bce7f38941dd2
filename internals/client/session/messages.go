package session

import (
	"errors"
	"strings"

	"wasitku_backend/internals/client/gateway"
)

const GenericFailure = "Something went wrong. Please try again."

// AuthMessage turns an action error into the sentence a form shows.
func AuthMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		return "Invalid email or password"
	case strings.Contains(msg, "Email not confirmed"):
		return "Please confirm your email before logging in"
	case strings.Contains(msg, "User already registered"):
		return "An account with this email already exists"
	case errors.Is(err, ErrUsernameTaken), gateway.IsConflict(err) && strings.Contains(strings.ToLower(msg), "username"):
		return "Username is already taken"
	}
	return GenericFailure
}
