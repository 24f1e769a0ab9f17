package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/models"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

// ProfileUpdate carries the patchable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// AddressInput sets or replaces the user's single address.
type AddressInput struct {
	VillageID *string
	Latitude  float64
	Longitude float64
}

// UserService covers profile reads and writes outside the auth lifecycle.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// GetProfile loads a user with their address.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Address").
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to load profile")
	}
	return &user, nil
}

// UpdateProfile applies a partial update to the profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if len(phone) < 10 || len(phone) > 13 {
			return nil, apperrors.NewBadRequest("phone number must be 10 to 13 characters")
		}
		updates["phone_number"] = phone
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Updates(updates).Error
		if err != nil {
			if database.IsUniqueConstraintError(err) {
				return nil, apperrors.NewConflict("phone number already in use")
			}
			return nil, apperrors.Wrap(err, "failed to update profile")
		}
	}

	return s.GetProfile(ctx, userID)
}

// UpsertAddress creates or replaces the user's address.
func (s *UserService) UpsertAddress(ctx context.Context, userID string, input AddressInput) (*models.UserAddress, error) {
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewBadRequest("coordinates out of range")
	}

	var address models.UserAddress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&address).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"village_id": input.VillageID,
			"lat":        input.Latitude,
			"lng":        input.Longitude,
		}
		if err := s.db.WithContext(ctx).Model(&address).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to update address")
		}
		address.VillageID = input.VillageID
		address.Lat = input.Latitude
		address.Lng = input.Longitude
		return &address, nil
	case isNotFound(err):
		address = models.UserAddress{
			UserID:    userID,
			VillageID: input.VillageID,
			Lat:       input.Latitude,
			Lng:       input.Longitude,
		}
		if err := s.db.WithContext(ctx).Create(&address).Error; err != nil {
			return nil, apperrors.Wrap(err, "failed to create address")
		}
		return &address, nil
	default:
		return nil, apperrors.Wrap(err, "failed to load address")
	}
}

// Deactivate turns the account off. Existing tokens still verify until
// logout or expiry; the login and refresh paths reject inactive users.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "failed to deactivate account")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
