package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/pkg/metrics"
)

// BlacklistService records revoked token pairs. A blacklisted token is dead
// even while its signature and expiry are still valid.
type BlacklistService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBlacklistService constructs a BlacklistService.
func NewBlacklistService(db *gorm.DB) (*BlacklistService, error) {
	if db == nil {
		return nil, errors.New("blacklist service: db is required")
	}
	return &BlacklistService{db: db, now: time.Now}, nil
}

// Revoke stores the token pair. Revoking an already revoked pair is treated
// as success, so repeated logout with the same tokens stays idempotent.
func (s *BlacklistService) Revoke(ctx context.Context, userID, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return errors.New("blacklist service: both tokens are required")
	}

	entry := &models.TokenBlacklist{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil
		}
		return fmt.Errorf("blacklist service: revoke tokens: %w", err)
	}

	metrics.BlacklistedTokens.Inc()
	return nil
}

// IsRevoked reports whether the string appears as either half of a revoked
// pair.
func (s *BlacklistService) IsRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TokenBlacklist{}).
		Where("access_token = ? OR refresh_token = ?", token, token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("blacklist service: lookup token: %w", err)
	}

	return count > 0, nil
}

// SweepExpired removes blacklist rows older than retention. Tokens outlive
// their JWT expiry inside the blacklist only until the next sweep.
func (s *BlacklistService) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultRefreshTokenTTL
	}

	result := s.db.WithContext(ctx).
		Where("created_at < ?", s.now().Add(-retention)).
		Delete(&models.TokenBlacklist{})
	if result.Error != nil {
		return 0, fmt.Errorf("blacklist service: sweep expired: %w", result.Error)
	}

	return result.RowsAffected, nil
}
