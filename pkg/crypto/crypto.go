package crypto

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

// MinPasswordLength is the smallest password the policy accepts.
const MinPasswordLength = 8

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the minimum password policy:
// at least MinPasswordLength characters and not entirely numeric.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return apperrors.NewBadRequest("password cannot be entirely numeric")
	}

	if strings.TrimSpace(password) != password {
		return apperrors.NewBadRequest("password cannot begin or end with whitespace")
	}

	return nil
}
