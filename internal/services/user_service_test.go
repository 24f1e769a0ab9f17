package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamboshop/jamboshop/internal/database/testutil"
	"github.com/jamboshop/jamboshop/internal/models"
)

func TestUpdateProfilePartial(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewUserService(db)
	require.NoError(t, err)

	user := seedStoreUser(t, db, "wanja", models.UserTypeCustomer)

	first := "Wanja"
	updated, err := service.UpdateProfile(context.Background(), user.ID, ProfileUpdate{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Wanja", updated.FirstName)
	require.Equal(t, user.PhoneNumber, updated.PhoneNumber)

	bad := "123"
	_, err = service.UpdateProfile(context.Background(), user.ID, ProfileUpdate{PhoneNumber: &bad})
	require.Error(t, err)
}

func TestUpsertAddressCreatesThenReplaces(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewUserService(db)
	require.NoError(t, err)

	user := seedStoreUser(t, db, "xena", models.UserTypeCustomer)

	created, err := service.UpsertAddress(context.Background(), user.ID, AddressInput{
		Latitude: -1.95, Longitude: 30.06,
	})
	require.NoError(t, err)

	replaced, err := service.UpsertAddress(context.Background(), user.ID, AddressInput{
		Latitude: -1.90, Longitude: 30.10,
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, replaced.ID)
	require.InDelta(t, -1.90, replaced.Lat, 0.0001)

	var count int64
	require.NoError(t, db.Model(&models.UserAddress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	profile, err := service.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Address)
	require.InDelta(t, 30.10, profile.Address.Lng, 0.0001)
}

func TestUpsertAddressRejectsBadCoordinates(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewUserService(db)
	require.NoError(t, err)

	user := seedStoreUser(t, db, "yusuf", models.UserTypeCustomer)

	_, err = service.UpsertAddress(context.Background(), user.ID, AddressInput{Latitude: 120, Longitude: 30})
	require.Error(t, err)
}

func TestDeactivateBlocksLogin(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	service, err := NewUserService(db)
	require.NoError(t, err)

	user := seedStoreUser(t, db, "zahra", models.UserTypeCustomer)

	require.NoError(t, service.Deactivate(context.Background(), user.ID))

	var reloaded models.User
	require.NoError(t, db.Where("id = ?", user.ID).Take(&reloaded).Error)
	require.False(t, reloaded.IsActive)

	require.Error(t, service.Deactivate(context.Background(), "missing-id"))
}
