package password

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinLength in runes.
const MinLength = 6

// bcrypt ignores everything past 72 bytes.
const maxBytes = 72

var (
	ErrTooShort = errors.New("password must be at least 6 characters")
	ErrTooLong  = errors.New("password must be at most 72 bytes")
)

// Validate checks length only.
func Validate(plain string) error {
	if utf8.RuneCountInString(plain) < MinLength {
		return ErrTooShort
	}
	if len(plain) > maxBytes {
		return ErrTooLong
	}
	return nil
}

// Hash bcrypt with the default cost.
func Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
