package validation

import (
	"errors"
	"strings"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 characters")
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
	"vinnodrive",
}

// ValidatePassword validates password strength
// Enforces NIST recommendations: minimum 12 characters, blocks common patterns
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return ErrPasswordTooShort
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return ErrPasswordCommon
		}
	}

	return nil
}
