package models

// Photo is a single image attached to a listing. MediaRef is the opaque
// upload handle issued by the chat platform; positions are zero-based and
// unique within a listing. Photos are owned exclusively by their listing and
// replaced wholesale when the photo set is edited.
type Photo struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ListingID uint   `gorm:"not null;uniqueIndex:idx_listing_position"`
	MediaRef  string `gorm:"size:256;not null"`
	Position  int    `gorm:"not null;uniqueIndex:idx_listing_position"`
}
