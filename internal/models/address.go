package models

// Administrative reference hierarchy used for delivery addresses.

type Province struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
}

type District struct {
	BaseModel

	Name       string    `gorm:"not null" json:"name"`
	ProvinceID string    `gorm:"type:uuid;not null;index" json:"province_id"`
	Province   *Province `gorm:"foreignKey:ProvinceID;constraint:OnDelete:CASCADE" json:"-"`
}

type Sector struct {
	BaseModel

	Name       string    `gorm:"not null" json:"name"`
	DistrictID string    `gorm:"type:uuid;not null;index" json:"district_id"`
	District   *District `gorm:"foreignKey:DistrictID;constraint:OnDelete:CASCADE" json:"-"`
}

type Village struct {
	BaseModel

	Name     string  `gorm:"not null" json:"name"`
	SectorID string  `gorm:"type:uuid;not null;index" json:"sector_id"`
	Sector   *Sector `gorm:"foreignKey:SectorID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserAddress pins a user to a village plus raw coordinates. One per user.
type UserAddress struct {
	BaseModel

	UserID    string   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	VillageID *string  `gorm:"type:uuid" json:"village_id"`
	Village   *Village `gorm:"foreignKey:VillageID;constraint:OnDelete:SET NULL" json:"village,omitempty"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
