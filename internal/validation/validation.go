package validation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidEmail is returned when an email doesn't match the required format
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmailTooLong is returned when an email exceeds the storage limit
	ErrEmailTooLong = errors.New("email must be at most 320 characters")

	// emailRegex is a pragmatic check, not a full RFC 5322 parser
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateEmail validates a login email address.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)

	if len(email) > 320 {
		return ErrEmailTooLong
	}

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizeEmail normalizes an email by lowercasing and trimming whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateMediaURL validates a user-supplied media URL.
func ValidateMediaURL(raw string) error {
	if raw == "" {
		return errors.New("media URL is required")
	}

	if len(raw) > 2048 {
		return errors.New("media URL must be at most 2048 characters")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("media URL is not a valid URL")
	}

	if u.Scheme != "https" {
		return errors.New("media URL must use https")
	}

	if u.Host == "" {
		return errors.New("media URL must include a host")
	}

	return nil
}
