package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/verification"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

// foldCodeError collapses every verification-code miss into the uniform
// user-facing error. The distinct sentinels still reach the logs through
// the Internal field.
func foldCodeError(err error) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, verification.ErrCodeNotFound),
		errors.Is(err, verification.ErrCodeExpired),
		errors.Is(err, verification.ErrCodeConsumed):
		return apperrors.ErrCodeNotValid.WithInternal(err)
	default:
		return apperrors.Wrap(err, "verification code lookup failed")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
