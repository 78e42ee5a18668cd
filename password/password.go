// Package password implements the strength policy and the slow adaptive
// hashing used for stored credentials.
package password

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minLength = 8
	// bcrypt ignores everything past 72 bytes; longer inputs are rejected
	// outright instead of being silently truncated.
	maxBytes = 72

	hashCost = 10
)

// Each policy failure names the one missing requirement, checked in a fixed
// order, so the caller can tell the user exactly what to add.
var (
	// ErrTooShort reports a password under the minimum length.
	ErrTooShort = errors.New("password must be at least 8 characters long")
	// ErrTooLong reports a password over the hashable maximum.
	ErrTooLong = errors.New("password must be at most 72 bytes long")
	// ErrNoUpper reports a password without an uppercase letter.
	ErrNoUpper = errors.New("password must contain at least one uppercase letter")
	// ErrNoLower reports a password without a lowercase letter.
	ErrNoLower = errors.New("password must contain at least one lowercase letter")
	// ErrNoDigit reports a password without a number.
	ErrNoDigit = errors.New("password must contain at least one number")
	// ErrNoSymbol reports a password without a special character.
	ErrNoSymbol = errors.New("password must contain at least one special character")
)

// Validate checks the strength policy: minimum length 8 and at least one
// character from each of the uppercase, lowercase, digit, and symbol
// classes. The first unmet requirement is returned.
func Validate(pw string) error {
	if len(pw) < minLength {
		return ErrTooShort
	}
	if len(pw) > maxBytes {
		return ErrTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return ErrNoUpper
	case !hasLower:
		return ErrNoLower
	case !hasDigit:
		return ErrNoDigit
	case !hasSymbol:
		return ErrNoSymbol
	}
	return nil
}

// Hash derives a bcrypt hash of pw. Validate first; Hash applies no policy
// of its own beyond bcrypt's input limit.
func Hash(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether pw matches the stored bcrypt hash.
func Verify(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
