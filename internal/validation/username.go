package validation

import (
	"errors"
	"strings"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameLength   = errors.New("username must be between 3 and 32 characters")
	ErrUsernameChars    = errors.New("username may only contain letters, digits, '.', '-' and '_'")
)

// NormalizeUsername trims and lower-cases a username so lookups are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername expects an already normalized username.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}

	if len(username) < 3 || len(username) > 32 {
		return ErrUsernameLength
	}

	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
		default:
			return ErrUsernameChars
		}
	}

	return nil
}
