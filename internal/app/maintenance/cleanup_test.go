package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	iauth "github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/database/testutil"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/internal/verification"
)

func TestRunOnceSweepsCodesAndBlacklist(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	now := time.Now()
	codes, err := verification.NewService(db,
		verification.WithTTL(5*time.Minute),
		verification.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	blacklist, err := iauth.NewBlacklistService(db)
	require.NoError(t, err)

	email := "zuri@example.com"
	user := &models.User{Username: "zuri", Email: &email, Password: "x", PhoneNumber: "+250788000005"}
	require.NoError(t, db.Create(user).Error)

	_, err = codes.Create(context.Background(), models.PurposeSignup, &user.ID, email)
	require.NoError(t, err)

	require.NoError(t, blacklist.Revoke(context.Background(), user.ID, "stale-access", "stale-refresh"))
	require.NoError(t, db.Model(&models.TokenBlacklist{}).
		Where("access_token = ?", "stale-access").
		Update("created_at", now.Add(-100*time.Hour)).Error)

	cleaner := NewCleaner(codes, blacklist, WithBlacklistRetention(48*time.Hour))

	// Nothing is due yet.
	require.NoError(t, cleaner.RunOnce(context.Background()))
	var codeCount int64
	require.NoError(t, db.Model(&models.VerificationCode{}).Count(&codeCount).Error)
	require.EqualValues(t, 1, codeCount)

	now = now.Add(10 * time.Minute)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	require.NoError(t, db.Model(&models.VerificationCode{}).Count(&codeCount).Error)
	require.EqualValues(t, 0, codeCount)

	var blacklistCount int64
	require.NoError(t, db.Model(&models.TokenBlacklist{}).Count(&blacklistCount).Error)
	require.EqualValues(t, 0, blacklistCount)
}

func TestCleanerStartAndStopWithoutJobs(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
