package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/database/testutil"
	"github.com/jamboshop/jamboshop/internal/models"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

func seedStoreUser(t *testing.T, db *gorm.DB, username, userType string) *models.User {
	t.Helper()

	email := username + "@example.com"
	user := &models.User{
		Username:    username,
		Email:       &email,
		Password:    "hashed",
		PhoneNumber: nextPhone(),
		UserType:    userType,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Kigali city centre and two points roughly 1km and 400km away.
var (
	kigali  = [2]float64{-1.9441, 30.0619}
	kacyiru = [2]float64{-1.9397, 30.0557}
	mombasa = [2]float64{-4.0435, 39.6682}
)

func TestCreateStoreRequiresShoperRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewStoreService(db, 0)
	require.NoError(t, err)

	customer := seedStoreUser(t, db, "pia", models.UserTypeCustomer)
	_, err = service.Create(context.Background(), customer, StoreInput{
		Name:        "Corner Shop",
		Latitude:    kigali[0],
		Longitude:   kigali[1],
		PhoneNumber: nextPhone(),
	})
	require.Equal(t, apperrors.ErrForbidden.Code, apperrors.FromError(err).Code)

	shoper := seedStoreUser(t, db, "quentin", models.UserTypeShoper)
	store, err := service.Create(context.Background(), shoper, StoreInput{
		Name:        "Corner Shop",
		Latitude:    kigali[0],
		Longitude:   kigali[1],
		PhoneNumber: nextPhone(),
	})
	require.NoError(t, err)
	require.Equal(t, models.StoreSizeMedium, store.Size)
	require.Equal(t, shoper.ID, *store.OwnerID)
}

func TestCreateStoreRejectsDuplicatePhone(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewStoreService(db, 0)
	require.NoError(t, err)

	shoper := seedStoreUser(t, db, "rosa", models.UserTypeShoper)
	phone := nextPhone()

	_, err = service.Create(context.Background(), shoper, StoreInput{
		Name: "First", Latitude: kigali[0], Longitude: kigali[1], PhoneNumber: phone,
	})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), shoper, StoreInput{
		Name: "Second", Latitude: kigali[0], Longitude: kigali[1], PhoneNumber: phone,
	})
	require.Equal(t, apperrors.ErrConflict.Code, apperrors.FromError(err).Code)
}

func TestListScopesByViewer(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewStoreService(db, 0)
	require.NoError(t, err)

	alice := seedStoreUser(t, db, "salma", models.UserTypeShoper)
	bella := seedStoreUser(t, db, "tessa", models.UserTypeShoper)
	customer := seedStoreUser(t, db, "umar", models.UserTypeCustomer)

	for _, owner := range []*models.User{alice, bella} {
		_, err := service.Create(context.Background(), owner, StoreInput{
			Name: owner.Username + " store", Latitude: kigali[0], Longitude: kigali[1], PhoneNumber: nextPhone(),
		})
		require.NoError(t, err)
	}

	own, err := service.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, alice.ID, *own[0].OwnerID)

	all, err := service.List(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestNearFiltersAndSortsByDistance(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewStoreService(db, 10)
	require.NoError(t, err)

	shoper := seedStoreUser(t, db, "violet", models.UserTypeShoper)

	for _, spec := range []struct {
		name   string
		coords [2]float64
		closed bool
	}{
		{"Downtown", kigali, false},
		{"Kacyiru", kacyiru, false},
		{"Far Away", mombasa, false},
		{"Shut Downtown", kigali, true},
	} {
		store, err := service.Create(context.Background(), shoper, StoreInput{
			Name: spec.name, Latitude: spec.coords[0], Longitude: spec.coords[1], PhoneNumber: nextPhone(),
		})
		require.NoError(t, err)
		if spec.closed {
			require.NoError(t, db.Model(store).Update("is_closed", true).Error)
		}
	}

	nearby, err := service.Near(context.Background(), kigali[0], kigali[1])
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	require.Equal(t, "Downtown", nearby[0].Name)
	require.Equal(t, "Kacyiru", nearby[1].Name)
	require.Less(t, nearby[0].DistanceKm, nearby[1].DistanceKm)
	require.Less(t, nearby[1].DistanceKm, 10.0)
}

func TestNearRejectsBadCoordinates(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewStoreService(db, 0)
	require.NoError(t, err)

	_, err = service.Near(context.Background(), 123, 30)
	require.Error(t, err)
}

func TestDistanceKmKnownPair(t *testing.T) {
	// Kigali to Mombasa is roughly 1100km.
	d := distanceKm(kigali[0], kigali[1], mombasa[0], mombasa[1])
	require.InDelta(t, 1100, d, 100)

	require.InDelta(t, 0, distanceKm(kigali[0], kigali[1], kigali[0], kigali[1]), 0.001)
}
