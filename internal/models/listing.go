package models

import "time"

// Listing is a rental offering shown to end users. Promotional listings are
// advertisements: they carry no manager contact and are injected into the
// browse feed probabilistically instead of occupying a cursor position.
type Listing struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Description    string `gorm:"type:text;not null"`
	Price          string `gorm:"size:64;not null"`
	ManagerContact string `gorm:"size:128"`
	IsPromotional  bool   `gorm:"default:false;index"`
	ViewCount      int64  `gorm:"default:0"`
	LastShownAt    *time.Time
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time

	Photos []Photo `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}
