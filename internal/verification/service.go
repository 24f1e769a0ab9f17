package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/database"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/pkg/metrics"
)

// DefaultTTL is the fallback validity window for verification codes.
const DefaultTTL = 5 * time.Minute

const maxGenerateAttempts = 5

// Internal sentinels. Handlers must fold every one of them into the single
// opaque "code not valid" response; they exist so logs and metrics can tell
// a miss from an expiry from a replay.
var (
	// ErrCodeNotFound indicates no unconsumed record matches.
	ErrCodeNotFound = errors.New("verification: code not found")
	// ErrCodeExpired indicates the record exists but its TTL has elapsed.
	ErrCodeExpired = errors.New("verification: code expired")
	// ErrCodeConsumed signals a lost consumption race or a replay.
	ErrCodeConsumed = errors.New("verification: code already consumed")
	// ErrCodeConflict reports repeated generation collisions for one owner.
	ErrCodeConflict = errors.New("verification: code collision")
)

// Option customises the Service.
type Option func(*Service)

// WithTTL overrides the code lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithCodeLength adjusts the number of digits in generated codes.
func WithCodeLength(length int) Option {
	return func(s *Service) {
		if length > 0 {
			s.length = length
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithGenerator swaps the code generator, primarily for tests.
func WithGenerator(generate func(length int) string) Option {
	return func(s *Service) {
		if generate != nil {
			s.generate = generate
		}
	}
}

// Match selects a verification code record. Code is required; the remaining
// fields narrow the lookup per flow: signup and email-change match on owner
// or target email, password reset resolves by bare code.
type Match struct {
	Code    string
	Purpose string
	UserID  *string
	Email   string
}

// Service owns the verification-code lifecycle: creation with a system-wide
// expiry sweep, validity lookups, and exactly-once consumption.
type Service struct {
	db       *gorm.DB
	ttl      time.Duration
	length   int
	now      func() time.Time
	generate func(int) string
}

// NewService constructs a verification code service.
func NewService(db *gorm.DB, opts ...Option) (*Service, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}

	service := &Service{
		db:       db,
		ttl:      DefaultTTL,
		length:   DefaultCodeLength,
		now:      time.Now,
		generate: GenerateCode,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// TTL exposes the configured code lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Create sweeps all expired records system-wide and inserts a fresh code for
// the given owner in one transaction, so a just-created code can never be
// caught by its own sweep. A (code, owner) collision is retried with a new
// code; persistent collisions surface ErrCodeConflict.
func (s *Service) Create(ctx context.Context, purpose string, userID *string, email string) (*models.VerificationCode, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var lastErr error
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		record := &models.VerificationCode{
			UserID:  userID,
			Code:    s.generate(s.length),
			Purpose: purpose,
			Email:   email,
		}
		// Stamp from the service clock so the sweep, Valid and the stored
		// timestamps all measure against the same time source.
		record.CreatedAt = s.now()
		record.UpdatedAt = record.CreatedAt

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.sweep(tx); err != nil {
				return err
			}
			return tx.Create(record).Error
		})
		if err == nil {
			metrics.VerificationCodes.WithLabelValues(purpose, "created").Inc()
			return record, nil
		}
		if !database.IsUniqueConstraintError(err) {
			return nil, fmt.Errorf("verification service: create code: %w", err)
		}
		lastErr = err
	}

	metrics.VerificationCodes.WithLabelValues(purpose, "conflict").Inc()
	return nil, fmt.Errorf("%w: %v", ErrCodeConflict, lastErr)
}

// FindValid returns the unconsumed record matching m, or ErrCodeNotFound /
// ErrCodeExpired. Expiry is evaluated against the injected clock; no write
// is needed for a code to expire.
func (s *Service) FindValid(ctx context.Context, m Match) (*models.VerificationCode, error) {
	code := strings.TrimSpace(m.Code)
	if code == "" {
		return nil, ErrCodeNotFound
	}

	query := s.db.WithContext(ctx).
		Where("code = ? AND consumed = ?", code, false)
	if m.Purpose != "" {
		query = query.Where("purpose = ?", m.Purpose)
	}
	if m.UserID != nil {
		query = query.Where("user_id = ?", *m.UserID)
	}
	if m.Email != "" {
		query = query.Where("email = ?", strings.ToLower(strings.TrimSpace(m.Email)))
	}

	var record models.VerificationCode
	if err := query.Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.VerificationCodes.WithLabelValues(m.Purpose, "not_found").Inc()
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("verification service: find code: %w", err)
	}

	if !record.Valid(s.now(), s.ttl) {
		metrics.VerificationCodes.WithLabelValues(record.Purpose, "expired").Inc()
		return nil, ErrCodeExpired
	}

	return &record, nil
}

// ConsumeDelete removes the record. Deletion is conditional on the record
// still being unconsumed, so of two concurrent confirmations exactly one
// wins and the other receives ErrCodeConsumed.
func (s *Service) ConsumeDelete(ctx context.Context, record *models.VerificationCode) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND consumed = ?", record.ID, false).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return fmt.Errorf("verification service: consume delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeConsumed
	}

	metrics.VerificationCodes.WithLabelValues(record.Purpose, "consumed").Inc()
	return nil
}

// ConsumeMark flips the consumed flag exactly once.
func (s *Service) ConsumeMark(ctx context.Context, record *models.VerificationCode) error {
	result := s.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND consumed = ?", record.ID, false).
		Update("consumed", true)
	if result.Error != nil {
		return fmt.Errorf("verification service: consume mark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeConsumed
	}

	record.Consumed = true
	metrics.VerificationCodes.WithLabelValues(record.Purpose, "consumed").Inc()
	return nil
}

// ConsumeRewind pushes created_at back by one TTL instead of deleting, so the
// record stays for audit while Valid is permanently false. The update is
// compare-and-swapped on the original timestamp, keeping consumption
// exactly-once under concurrent confirmation.
func (s *Service) ConsumeRewind(ctx context.Context, record *models.VerificationCode) error {
	rewound := record.CreatedAt.Add(-s.ttl)

	result := s.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND created_at = ?", record.ID, record.CreatedAt).
		Update("created_at", rewound)
	if result.Error != nil {
		return fmt.Errorf("verification service: consume rewind: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeConsumed
	}

	record.CreatedAt = rewound
	metrics.VerificationCodes.WithLabelValues(record.Purpose, "consumed").Inc()
	return nil
}

// SweepExpired deletes every record past its TTL, any purpose and any owner.
// The write path already performs this sweep; the maintenance cron calls it
// for quiet periods.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", s.now().Add(-s.ttl)).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("verification service: sweep expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Service) sweep(tx *gorm.DB) error {
	return tx.
		Where("created_at < ?", s.now().Add(-s.ttl)).
		Delete(&models.VerificationCode{}).Error
}
