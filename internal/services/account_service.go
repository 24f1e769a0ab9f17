package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/internal/notifications"
	"github.com/jamboshop/jamboshop/internal/verification"
	"github.com/jamboshop/jamboshop/pkg/crypto"
	apperrors "github.com/jamboshop/jamboshop/pkg/errors"
	"github.com/jamboshop/jamboshop/pkg/logger"
	"github.com/jamboshop/jamboshop/pkg/metrics"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	UserType    string
}

// RegisterResult reports the created account and whether the activation
// email was handed to the dispatcher.
type RegisterResult struct {
	User      *models.User
	Notified  bool
	Recipient string
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithTemplates overrides the default email wording.
func WithTemplates(templates MessageTemplates) AccountOption {
	return func(s *AccountService) {
		s.templates = templates
	}
}

// WithAccountClock injects a custom time source.
func WithAccountClock(clock func() time.Time) AccountOption {
	return func(s *AccountService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AccountService drives the account lifecycle: registration, activation,
// login, password reset, email change, logout.
type AccountService struct {
	db         *gorm.DB
	codes      *verification.Service
	tokens     *auth.TokenService
	blacklist  *auth.BlacklistService
	dispatcher notifications.Dispatcher
	templates  MessageTemplates
	log        *zap.Logger
	now        func() time.Time
}

// NewAccountService wires the account lifecycle service.
func NewAccountService(
	db *gorm.DB,
	codes *verification.Service,
	tokens *auth.TokenService,
	blacklist *auth.BlacklistService,
	dispatcher notifications.Dispatcher,
	opts ...AccountOption,
) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if codes == nil {
		return nil, errors.New("account service: verification service is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	if blacklist == nil {
		return nil, errors.New("account service: blacklist service is required")
	}
	if dispatcher == nil {
		return nil, errors.New("account service: dispatcher is required")
	}

	service := &AccountService{
		db:         db,
		codes:      codes,
		tokens:     tokens,
		blacklist:  blacklist,
		dispatcher: dispatcher,
		templates:  DefaultTemplates(),
		log:        logger.WithModule("accounts"),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Register creates an inactive account and immediately runs the post-create
// hook: mint a signup code and dispatch the activation email. The hook is an
// explicit, synchronous step so callers always know whether the code exists.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || strings.ContainsAny(username, " \t") {
		return nil, apperrors.NewBadRequest("username must be a single word")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if len(phone) < 10 || len(phone) > 13 {
		return nil, apperrors.NewBadRequest("phone number must be 10 to 13 characters")
	}

	if err := crypto.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.findUserByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already in use")
	} else if !isNotFound(err) {
		return nil, apperrors.Wrap(err, "failed to check email availability")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	userType := input.UserType
	switch userType {
	case "":
		userType = models.UserTypeCustomer
	case models.UserTypeCustomer, models.UserTypeShoper:
	default:
		return nil, apperrors.NewBadRequest("user type must be USER or SHOPER")
	}

	user := &models.User{
		Username:    username,
		Email:       &email,
		Password:    hash,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		PhoneNumber: phone,
		UserType:    userType,
		IsActive:    false,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("username, email or phone number already in use")
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}

	result := &RegisterResult{User: user, Recipient: email}
	if err := s.sendCode(ctx, user, models.PurposeSignup, email); err != nil {
		// The account exists; the user can ask for a resend.
		s.log.Error("failed to issue signup code after registration",
			zap.String("user_id", user.ID), zap.Error(err))
		return result, nil
	}
	result.Notified = true

	return result, nil
}

// ResendActivation issues a fresh signup code for a still-inactive account.
// Unknown emails and already-active accounts return success so the endpoint
// cannot be used to probe which addresses exist.
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.log.Info("activation resend for unknown email", zap.String("email", strings.ToLower(email)))
			return nil
		}
		return apperrors.Wrap(err, "failed to look up account")
	}
	if user.IsActive {
		return nil
	}

	if err := s.sendCode(ctx, user, models.PurposeSignup, user.EmailValue()); err != nil {
		return apperrors.Wrap(err, "failed to issue activation code")
	}
	return nil
}

// Activate redeems a signup code, flips the account active and mints a token
// pair, so activation doubles as the first login. The code delete is the
// exactly-once gate: a replayed code fails before any user write.
func (s *AccountService) Activate(ctx context.Context, code string) (*models.User, *auth.TokenPair, error) {
	record, err := s.codes.FindValid(ctx, verification.Match{Code: code, Purpose: models.PurposeSignup})
	if err != nil {
		return nil, nil, foldCodeError(err)
	}
	if record.UserID == nil {
		return nil, nil, apperrors.ErrCodeNotValid.WithInternal(errors.New("signup code without owner"))
	}

	user, err := s.findUserByID(ctx, *record.UserID)
	if err != nil {
		return nil, nil, foldCodeError(verification.ErrCodeNotFound)
	}

	if err := s.codes.ConsumeDelete(ctx, record); err != nil {
		return nil, nil, foldCodeError(err)
	}

	now := s.now()
	updates := map[string]any{"is_active": true, "last_login_at": now}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to activate account")
	}
	user.IsActive = true
	user.LastLoginAt = &now

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to issue tokens")
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return user, pair, nil
}

// RequestPasswordReset creates a reset code for the account behind email.
// The response is identical whether or not the account exists.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.log.Info("password reset for unknown email", zap.String("email", strings.ToLower(email)))
			return nil
		}
		return apperrors.Wrap(err, "failed to look up account")
	}
	if !user.IsActive {
		return nil
	}

	if err := s.sendCode(ctx, user, models.PurposeResetPassword, user.EmailValue()); err != nil {
		return apperrors.Wrap(err, "failed to issue reset code")
	}
	return nil
}

// ValidateResetCode probes whether a reset code can still be redeemed.
func (s *AccountService) ValidateResetCode(ctx context.Context, code string) error {
	_, err := s.codes.FindValid(ctx, verification.Match{Code: code, Purpose: models.PurposeResetPassword})
	if err != nil {
		return foldCodeError(err)
	}
	return nil
}

// ConfirmPasswordReset redeems a reset code and sets a new password. The
// code row is rewound, not deleted, so the audit trail keeps it while Valid
// stays permanently false. The rewind is the exactly-once gate.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	record, err := s.codes.FindValid(ctx, verification.Match{Code: code, Purpose: models.PurposeResetPassword})
	if err != nil {
		return foldCodeError(err)
	}
	if record.UserID == nil {
		return apperrors.ErrCodeNotValid.WithInternal(errors.New("reset code without owner"))
	}

	user, err := s.findUserByID(ctx, *record.UserID)
	if err != nil {
		return foldCodeError(verification.ErrCodeNotFound)
	}

	if err := crypto.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	if crypto.VerifyPassword(user.Password, newPassword) {
		return apperrors.NewBadRequest("new password must differ from the current password")
	}

	if err := s.codes.ConsumeRewind(ctx, record); err != nil {
		return foldCodeError(err)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return apperrors.Wrap(err, "failed to update password")
	}

	return nil
}

// ChangePassword sets a new password for an authenticated account. Unlike the
// reset flow there is no code: possession of the current password is the gate.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.findUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound
		}
		return apperrors.Wrap(err, "failed to look up account")
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return apperrors.ErrInvalidCredentials
	}

	if err := crypto.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	if crypto.VerifyPassword(user.Password, newPassword) {
		return apperrors.NewBadRequest("new password must differ from the current password")
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return apperrors.Wrap(err, "failed to update password")
	}

	return nil
}

// RequestEmailChange issues a change-email code addressed to the new email.
// The code belongs to the requesting user and carries the target address.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	email := strings.ToLower(strings.TrimSpace(newEmail))
	if email == "" {
		return apperrors.NewBadRequest("email is required")
	}

	user, err := s.findUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound
		}
		return apperrors.Wrap(err, "failed to look up account")
	}

	if owner, err := s.findUserByEmail(ctx, email); err == nil && owner.ID != user.ID {
		return apperrors.NewConflict("email already in use")
	} else if err != nil && !isNotFound(err) {
		return apperrors.Wrap(err, "failed to check email availability")
	}

	record, err := s.codes.Create(ctx, models.PurposeChangeEmail, &user.ID, email)
	if err != nil {
		return apperrors.Wrap(err, "failed to issue email change code")
	}

	s.dispatcher.Dispatch(ctx, s.templates.emailChange(email, user.FullName(), record.Code, s.codes.TTL()))
	return nil
}

// ConfirmEmailChange redeems a change-email code owned by userID and swaps
// the account email to the code's target. Mark-then-delete: the consumed
// flag is the exactly-once gate, the delete is cleanup.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, userID, code string) (*models.User, error) {
	record, err := s.codes.FindValid(ctx, verification.Match{
		Code:    code,
		Purpose: models.PurposeChangeEmail,
		UserID:  &userID,
	})
	if err != nil {
		return nil, foldCodeError(err)
	}

	user, err := s.findUserByID(ctx, userID)
	if err != nil {
		return nil, foldCodeError(verification.ErrCodeNotFound)
	}

	if owner, err := s.findUserByEmail(ctx, record.Email); err == nil && owner.ID != user.ID {
		return nil, apperrors.NewConflict("email already in use")
	} else if err != nil && !isNotFound(err) {
		return nil, apperrors.Wrap(err, "failed to check email availability")
	}

	if err := s.codes.ConsumeMark(ctx, record); err != nil {
		return nil, foldCodeError(err)
	}

	newEmail := record.Email
	if err := s.db.WithContext(ctx).Model(user).Update("email", newEmail).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("email already in use")
		}
		return nil, apperrors.Wrap(err, "failed to update email")
	}
	user.Email = &newEmail

	if err := s.codes.ConsumeDelete(ctx, record); err != nil && !errors.Is(err, verification.ErrCodeConsumed) {
		s.log.Warn("failed to remove redeemed email change code",
			zap.String("code_id", record.ID), zap.Error(err))
	}

	return user, nil
}

// Login authenticates by username and password. Inactive accounts and bad
// credentials are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, *auth.TokenPair, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		Take(&user).Error
	if err != nil {
		if isNotFound(err) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, apperrors.Wrap(err, "failed to look up account")
	}

	if !user.IsActive || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to record login")
	}
	user.LastLoginAt = &now

	pair, err := s.tokens.IssuePair(&user)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to issue tokens")
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, pair, nil
}

// Refresh trades a valid, unrevoked refresh token for a new pair. The old
// pair stays live until the client logs out with it.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithInternal(err)
	}

	revoked, err := s.blacklist.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check token revocation")
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.findUserByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, apperrors.ErrInvalidToken
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue tokens")
	}
	return pair, nil
}

// Logout blacklists the presented token pair.
func (s *AccountService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if err := s.blacklist.Revoke(ctx, userID, accessToken, refreshToken); err != nil {
		return apperrors.Wrap(err, "failed to revoke tokens")
	}
	return nil
}

func (s *AccountService) sendCode(ctx context.Context, user *models.User, purpose, recipient string) error {
	record, err := s.codes.Create(ctx, purpose, &user.ID, recipient)
	if err != nil {
		return fmt.Errorf("create %s code: %w", purpose, err)
	}

	ttl := s.codes.TTL()
	switch purpose {
	case models.PurposeSignup:
		s.dispatcher.Dispatch(ctx, s.templates.activation(recipient, user.FullName(), record.Code, ttl))
	case models.PurposeResetPassword:
		s.dispatcher.Dispatch(ctx, s.templates.reset(recipient, user.FullName(), record.Code, ttl))
	default:
		s.dispatcher.Dispatch(ctx, s.templates.emailChange(recipient, user.FullName(), record.Code, ttl))
	}

	return nil
}

func (s *AccountService) findUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) findUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
