package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User type tags. USER is the default for self-registered customers.
const (
	UserTypeAdmin    = "ADMIN"
	UserTypeStaff    = "STAFF"
	UserTypeShoper   = "SHOPER"
	UserTypeCustomer = "USER"
)

// User describes marketplace accounts: customers, shop owners, staff and admins.
// Accounts start inactive and become active only after signup verification.
type User struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	Username string  `gorm:"uniqueIndex;not null" json:"username"`
	Email    *string `gorm:"uniqueIndex" json:"email"`
	Password string  `gorm:"not null" json:"-"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `gorm:"uniqueIndex;not null;size:13" json:"phone_number"`

	UserType string `gorm:"not null;default:USER" json:"user_type"`
	IsActive bool   `gorm:"default:false" json:"is_active"`

	Address *UserAddress `gorm:"foreignKey:UserID" json:"address,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName joins first and last name for display and email greetings.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the account carries the privileged admin tag.
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// EmailValue returns the email or empty string when unset.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
