package models

// TokenBlacklist records token pairs revoked by logout or forced revocation.
// A listed access token must be rejected for non-privileged users even though
// its signature still verifies.
type TokenBlacklist struct {
	BaseModel

	AccessToken  string `gorm:"uniqueIndex;not null;size:500" json:"-"`
	RefreshToken string `gorm:"uniqueIndex;not null;size:500" json:"-"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
