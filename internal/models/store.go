package models

// Store size classes.
const (
	StoreSizeSmall  = "SMALL"
	StoreSizeMedium = "MEDIUM"
	StoreSizeLarge  = "LARGE"
)

// Store is a physical shop location owned by a SHOPER account. Ownership is
// nullified on user deletion so the listing survives its owner.
type Store struct {
	BaseModel

	Name    string  `gorm:"not null" json:"name"`
	OwnerID *string `gorm:"type:uuid;index" json:"owner_id"`
	Owner   *User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`

	VillageID *string  `gorm:"type:uuid" json:"village_id"`
	Village   *Village `gorm:"foreignKey:VillageID;constraint:OnDelete:SET NULL" json:"-"`

	Lat float64 `gorm:"not null" json:"lat"`
	Lng float64 `gorm:"not null" json:"lng"`

	PhoneNumber string `gorm:"uniqueIndex;not null;size:13" json:"phone_number"`
	Size        string `gorm:"not null;default:MEDIUM" json:"size"`
	IsClosed    bool   `gorm:"default:false" json:"is_closed"`
}
