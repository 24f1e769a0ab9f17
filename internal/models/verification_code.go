package models

import "time"

// Verification code purposes.
const (
	PurposeSignup        = "SIGNUP"
	PurposeResetPassword = "RESET_PASSWORD"
	PurposeChangeEmail   = "CHANGE_EMAIL"
)

// VerificationCode stores short-lived numeric codes gating signup activation,
// password reset and email change. The user reference is nullable: email-change
// codes address a new email before it belongs to anyone, and codes survive
// user deletion for audit without ever resolving to an action again.
type VerificationCode struct {
	BaseModel

	UserID *string `gorm:"type:uuid;index;uniqueIndex:idx_code_user" json:"user_id"`
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`

	Code     string `gorm:"not null;size:16;uniqueIndex:idx_code_user" json:"-"`
	Purpose  string `gorm:"not null;default:CHANGE_EMAIL" json:"purpose"`
	Consumed bool   `gorm:"default:false" json:"consumed"`

	// Email is the delivery target for pre-account and change-email flows.
	Email string `json:"email"`
}

// Valid reports whether the code can still be redeemed at the given instant.
// Expiry is purely computed; no write flips a code into the expired state.
func (v *VerificationCode) Valid(now time.Time, ttl time.Duration) bool {
	return !v.Consumed && now.Before(v.CreatedAt.Add(ttl))
}
