package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/database/testutil"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/internal/notifications"
	"github.com/jamboshop/jamboshop/internal/verification"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
)

type accountFixture struct {
	db       *gorm.DB
	service  *AccountService
	recorder *notifications.Recorder
	tokens   *auth.TokenService
	codes    *verification.Service
}

var phoneSequence atomic.Int64

func nextPhone() string {
	return fmt.Sprintf("+2507%08d", phoneSequence.Add(1))
}

func newAccountFixture(t *testing.T, codeOpts ...verification.Option) *accountFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	codes, err := verification.NewService(db, codeOpts...)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", Issuer: "jamboshop"})
	require.NoError(t, err)

	blacklist, err := auth.NewBlacklistService(db)
	require.NoError(t, err)

	recorder := notifications.NewRecorder()

	service, err := NewAccountService(db, codes, tokens, blacklist, recorder)
	require.NoError(t, err)

	return &accountFixture{db: db, service: service, recorder: recorder, tokens: tokens, codes: codes}
}

func (f *accountFixture) register(t *testing.T, username string) *RegisterResult {
	t.Helper()

	result, err := f.service.Register(context.Background(), RegisterInput{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "str0ng-pass",
		FirstName:   "Test",
		LastName:    "User",
		PhoneNumber: nextPhone(),
	})
	require.NoError(t, err)
	return result
}

func (f *accountFixture) latestCode(t *testing.T, userID, purpose string) string {
	t.Helper()

	var record models.VerificationCode
	err := f.db.
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").
		Take(&record).Error
	require.NoError(t, err)
	return record.Code
}

func TestRegisterCreatesInactiveUserAndDispatchesCode(t *testing.T) {
	f := newAccountFixture(t)

	result := f.register(t, "amara")
	require.False(t, result.User.IsActive)
	require.True(t, result.Notified)
	require.Equal(t, "amara@example.com", result.Recipient)
	require.Equal(t, models.UserTypeCustomer, result.User.UserType)

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	require.Len(t, code, verification.DefaultCodeLength)

	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "amara@example.com", sent[0].Recipient)
	require.Contains(t, sent[0].Body, code)
}

func TestRegisterValidation(t *testing.T) {
	f := newAccountFixture(t)

	base := RegisterInput{
		Username:    "bilal",
		Email:       "bilal@example.com",
		Password:    "str0ng-pass",
		PhoneNumber: nextPhone(),
	}

	twoWords := base
	twoWords.Username = "two words"
	_, err := f.service.Register(context.Background(), twoWords)
	require.Error(t, err)

	numeric := base
	numeric.Password = "123456789"
	_, err = f.service.Register(context.Background(), numeric)
	require.Error(t, err)

	shortPhone := base
	shortPhone.PhoneNumber = "12345"
	_, err = f.service.Register(context.Background(), shortPhone)
	require.Error(t, err)

	admin := base
	admin.UserType = models.UserTypeAdmin
	_, err = f.service.Register(context.Background(), admin)
	require.Error(t, err)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "chiara")

	_, err := f.service.Register(context.Background(), RegisterInput{
		Username:    "chiara2",
		Email:       "CHIARA@example.com",
		Password:    "str0ng-pass",
		PhoneNumber: nextPhone(),
	})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrConflict.Code, appErr.Code)
}

func TestActivateMintsTokensAndRejectsReplay(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "dalia")

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)

	user, pair, err := f.service.Activate(context.Background(), code)
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.NotNil(t, user.LastLoginAt)

	claims, err := f.tokens.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	_, _, err = f.service.Activate(context.Background(), code)
	require.Error(t, err)
	require.Equal(t, apperrors.ErrCodeNotValid.Code, apperrors.FromError(err).Code)
}

func TestResendActivationIsOpaque(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "elodie")
	f.recorder.Reset()

	require.NoError(t, f.service.ResendActivation(context.Background(), "nobody@example.com"))
	require.Empty(t, f.recorder.Sent())

	require.NoError(t, f.service.ResendActivation(context.Background(), "ELODIE@example.com"))
	require.Len(t, f.recorder.Sent(), 1)

	// Active accounts do not receive further activation codes.
	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	_, _, err := f.service.Activate(context.Background(), code)
	require.NoError(t, err)
	f.recorder.Reset()
	require.NoError(t, f.service.ResendActivation(context.Background(), "elodie@example.com"))
	require.Empty(t, f.recorder.Sent())
}

func TestPasswordResetEndToEnd(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "farida")

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	_, _, err := f.service.Activate(context.Background(), code)
	require.NoError(t, err)

	// Unknown email looks exactly like success.
	f.recorder.Reset()
	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "ghost@example.com"))
	require.Empty(t, f.recorder.Sent())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "farida@example.com"))
	require.Len(t, f.recorder.Sent(), 1)

	resetCode := f.latestCode(t, result.User.ID, models.PurposeResetPassword)
	require.NoError(t, f.service.ValidateResetCode(context.Background(), resetCode))

	// Same-as-current is rejected without burning the code.
	err = f.service.ConfirmPasswordReset(context.Background(), resetCode, "str0ng-pass")
	require.Error(t, err)
	require.NoError(t, f.service.ValidateResetCode(context.Background(), resetCode))

	require.NoError(t, f.service.ConfirmPasswordReset(context.Background(), resetCode, "fresh-passw0rd"))

	// The rewound code row survives but never validates again.
	require.Error(t, f.service.ValidateResetCode(context.Background(), resetCode))
	err = f.service.ConfirmPasswordReset(context.Background(), resetCode, "another-passw0rd")
	require.Equal(t, apperrors.ErrCodeNotValid.Code, apperrors.FromError(err).Code)

	_, _, err = f.service.Login(context.Background(), "farida", "str0ng-pass")
	require.Error(t, err)
	_, _, err = f.service.Login(context.Background(), "farida", "fresh-passw0rd")
	require.NoError(t, err)
}

func TestChangePasswordVerifiesCurrentAndAppliesPolicy(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "nadia")

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	_, _, err := f.service.Activate(context.Background(), code)
	require.NoError(t, err)

	err = f.service.ChangePassword(context.Background(), result.User.ID, "wrong-password", "fresh-passw0rd")
	require.Equal(t, apperrors.ErrInvalidCredentials.Code, apperrors.FromError(err).Code)

	// Policy and same-as-current rejections leave the password untouched.
	require.Error(t, f.service.ChangePassword(context.Background(), result.User.ID, "str0ng-pass", "123456789"))
	require.Error(t, f.service.ChangePassword(context.Background(), result.User.ID, "str0ng-pass", "str0ng-pass"))
	_, _, err = f.service.Login(context.Background(), "nadia", "str0ng-pass")
	require.NoError(t, err)

	require.NoError(t, f.service.ChangePassword(context.Background(), result.User.ID, "str0ng-pass", "fresh-passw0rd"))

	_, _, err = f.service.Login(context.Background(), "nadia", "str0ng-pass")
	require.Equal(t, apperrors.ErrInvalidCredentials.Code, apperrors.FromError(err).Code)
	_, _, err = f.service.Login(context.Background(), "nadia", "fresh-passw0rd")
	require.NoError(t, err)
}

func TestEmailChangeEndToEnd(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "gitura")

	signup := f.latestCode(t, result.User.ID, models.PurposeSignup)
	_, _, err := f.service.Activate(context.Background(), signup)
	require.NoError(t, err)

	f.recorder.Reset()
	require.NoError(t, f.service.RequestEmailChange(context.Background(), result.User.ID, "New-Address@Example.com"))

	sent := f.recorder.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "new-address@example.com", sent[0].Recipient)

	code := f.latestCode(t, result.User.ID, models.PurposeChangeEmail)

	updated, err := f.service.ConfirmEmailChange(context.Background(), result.User.ID, code)
	require.NoError(t, err)
	require.Equal(t, "new-address@example.com", updated.EmailValue())

	// Redeemed codes are gone.
	_, err = f.service.ConfirmEmailChange(context.Background(), result.User.ID, code)
	require.Equal(t, apperrors.ErrCodeNotValid.Code, apperrors.FromError(err).Code)
}

func TestEmailChangeRejectsTakenAddress(t *testing.T) {
	f := newAccountFixture(t)
	first := f.register(t, "habiba")
	f.register(t, "idris")

	err := f.service.RequestEmailChange(context.Background(), first.User.ID, "IDRIS@example.com")
	require.Error(t, err)
	require.Equal(t, apperrors.ErrConflict.Code, apperrors.FromError(err).Code)
}

func TestEmailChangeCodeIsOwnerScoped(t *testing.T) {
	f := newAccountFixture(t)
	owner := f.register(t, "jamal")
	intruder := f.register(t, "kito")

	require.NoError(t, f.service.RequestEmailChange(context.Background(), owner.User.ID, "jamal-new@example.com"))
	code := f.latestCode(t, owner.User.ID, models.PurposeChangeEmail)

	_, err := f.service.ConfirmEmailChange(context.Background(), intruder.User.ID, code)
	require.Equal(t, apperrors.ErrCodeNotValid.Code, apperrors.FromError(err).Code)
}

func TestLoginRequiresActiveAccountAndValidPassword(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "laila")

	// Inactive account and wrong password fail identically.
	_, _, err := f.service.Login(context.Background(), "laila", "str0ng-pass")
	require.Equal(t, apperrors.ErrInvalidCredentials.Code, apperrors.FromError(err).Code)

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	_, _, err = f.service.Activate(context.Background(), code)
	require.NoError(t, err)

	_, _, err = f.service.Login(context.Background(), "laila", "wrong-password")
	require.Equal(t, apperrors.ErrInvalidCredentials.Code, apperrors.FromError(err).Code)

	_, _, err = f.service.Login(context.Background(), "nobody", "str0ng-pass")
	require.Equal(t, apperrors.ErrInvalidCredentials.Code, apperrors.FromError(err).Code)

	user, pair, err := f.service.Login(context.Background(), "laila", "str0ng-pass")
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	require.NotEmpty(t, pair.AccessToken)
}

func TestRefreshRotatesAndHonoursBlacklist(t *testing.T) {
	f := newAccountFixture(t)
	result := f.register(t, "moses")

	code := f.latestCode(t, result.User.ID, models.PurposeSignup)
	user, pair, err := f.service.Activate(context.Background(), code)
	require.NoError(t, err)

	rotated, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)

	// Access tokens cannot be used as refresh tokens.
	_, err = f.service.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)

	require.NoError(t, f.service.Logout(context.Background(), user.ID, pair.AccessToken, pair.RefreshToken))
	// Double logout of the same pair folds to success.
	require.NoError(t, f.service.Logout(context.Background(), user.ID, pair.AccessToken, pair.RefreshToken))

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.Equal(t, apperrors.ErrInvalidToken.Code, apperrors.FromError(err).Code)
}

func TestActivationCodeExpiresWithClock(t *testing.T) {
	now := time.Now()
	f := newAccountFixture(t, verification.WithClock(func() time.Time { return now }), verification.WithTTL(5*time.Minute))

	result := f.register(t, "naomi")
	code := f.latestCode(t, result.User.ID, models.PurposeSignup)

	now = now.Add(6 * time.Minute)

	_, _, err := f.service.Activate(context.Background(), code)
	require.Equal(t, apperrors.ErrCodeNotValid.Code, apperrors.FromError(err).Code)
}

func TestRegisterShoperType(t *testing.T) {
	f := newAccountFixture(t)

	result, err := f.service.Register(context.Background(), RegisterInput{
		Username:    "okello",
		Email:       "okello@example.com",
		Password:    "str0ng-pass",
		PhoneNumber: nextPhone(),
		UserType:    models.UserTypeShoper,
	})
	require.NoError(t, err)
	require.Equal(t, models.UserTypeShoper, result.User.UserType)
	require.False(t, strings.EqualFold(result.User.UserType, models.UserTypeCustomer))
}
