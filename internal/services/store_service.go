package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/models"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

// DefaultNearRadiusKm bounds proximity queries when no radius is configured.
const DefaultNearRadiusKm = 10.0

// StoreInput carries the fields accepted when creating a store.
type StoreInput struct {
	Name        string
	VillageID   *string
	Latitude    float64
	Longitude   float64
	PhoneNumber string
	Size        string
}

// StoreWithDistance decorates a store with its distance from a query point.
type StoreWithDistance struct {
	models.Store
	DistanceKm float64 `json:"distance_km"`
}

// StoreService manages shop listings and proximity lookups.
type StoreService struct {
	db       *gorm.DB
	radiusKm float64
}

// NewStoreService constructs a StoreService. radiusKm bounds Near queries;
// zero or negative falls back to the default.
func NewStoreService(db *gorm.DB, radiusKm float64) (*StoreService, error) {
	if db == nil {
		return nil, errors.New("store service: db is required")
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearRadiusKm
	}
	return &StoreService{db: db, radiusKm: radiusKm}, nil
}

// Create registers a store owned by the given user. Only shop-owner accounts
// may create stores.
func (s *StoreService) Create(ctx context.Context, owner *models.User, input StoreInput) (*models.Store, error) {
	if owner == nil || owner.UserType != models.UserTypeShoper {
		return nil, apperrors.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("store name is required")
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if len(phone) < 10 || len(phone) > 13 {
		return nil, apperrors.NewBadRequest("phone number must be 10 to 13 characters")
	}

	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewBadRequest("coordinates out of range")
	}

	size := input.Size
	switch size {
	case "":
		size = models.StoreSizeMedium
	case models.StoreSizeSmall, models.StoreSizeMedium, models.StoreSizeLarge:
	default:
		return nil, apperrors.NewBadRequest("store size must be SMALL, MEDIUM or LARGE")
	}

	store := &models.Store{
		Name:        name,
		OwnerID:     &owner.ID,
		VillageID:   input.VillageID,
		Lat:         input.Latitude,
		Lng:         input.Longitude,
		PhoneNumber: phone,
		Size:        size,
	}

	if err := s.db.WithContext(ctx).Create(store).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("store phone number already in use")
		}
		return nil, apperrors.Wrap(err, "failed to create store")
	}

	return store, nil
}

// List returns stores visible to the viewer: shop owners see their own,
// everyone else browses the full catalogue.
func (s *StoreService) List(ctx context.Context, viewer *models.User) ([]models.Store, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if viewer != nil && viewer.UserType == models.UserTypeShoper {
		query = query.Where("owner_id = ?", viewer.ID)
	}

	var stores []models.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, apperrors.Wrap(err, "failed to list stores")
	}
	return stores, nil
}

// Near returns open stores within the configured radius of a point, closest
// first. Distance is computed in application code over the candidate rows.
func (s *StoreService) Near(ctx context.Context, lat, lng float64) ([]StoreWithDistance, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperrors.NewBadRequest("coordinates out of range")
	}

	var stores []models.Store
	err := s.db.WithContext(ctx).
		Where("is_closed = ?", false).
		Find(&stores).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load stores")
	}

	nearby := make([]StoreWithDistance, 0, len(stores))
	for _, store := range stores {
		d := distanceKm(lat, lng, store.Lat, store.Lng)
		if d <= s.radiusKm {
			nearby = append(nearby, StoreWithDistance{Store: store, DistanceKm: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby, nil
}
