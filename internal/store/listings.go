package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zhuravin/rentline/internal/models"
)

// CreateListing writes a listing and its photos atomically. Photo positions
// are assigned from the order of mediaRefs.
func (s *Store) CreateListing(listing *models.Listing, mediaRefs []string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		for pos, ref := range mediaRefs {
			photo := models.Photo{
				ListingID: listing.ID,
				MediaRef:  ref,
				Position:  pos,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: create listing: %w", err)
	}
	return nil
}

// GetListing fetches a listing by id with its photos ordered by position.
func (s *Store) GetListing(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get listing %d: %w", id, err)
	}
	return &listing, nil
}

// Photos returns a listing's photos ordered by position.
func (s *Store) Photos(listingID uint) ([]models.Photo, error) {
	var photos []models.Photo
	if err := s.db.Where("listing_id = ?", listingID).Order("position").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("store: photos for listing %d: %w", listingID, err)
	}
	return photos, nil
}

// RegularListings returns all non-promotional listings ordered by creation
// time descending — the browse feed order.
func (s *Store) RegularListings() ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.db.Where("is_promotional = ?", false).Order("created_at DESC, id DESC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("store: regular listings: %w", err)
	}
	return listings, nil
}

// PromotionalListings returns all promotional listings.
func (s *Store) PromotionalListings() ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.db.Where("is_promotional = ?", true).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("store: promotional listings: %w", err)
	}
	return listings, nil
}

// ReplacePhotos swaps a listing's entire photo set: old rows are deleted and
// new ones inserted with fresh positions, all in one transaction.
func (s *Store) ReplacePhotos(listingID uint, mediaRefs []string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Where("listing_id = ?", listingID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		for pos, ref := range mediaRefs {
			photo := models.Photo{
				ListingID: listingID,
				MediaRef:  ref,
				Position:  pos,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Listing{}).Where("id = ?", listingID).
			Update("updated_at", time.Now()).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: replace photos for listing %d: %w", listingID, err)
	}
	return nil
}

// UpdateDescription sets a listing's description.
func (s *Store) UpdateDescription(id uint, description string) error {
	return s.updateField(id, "description", description)
}

// UpdatePrice sets a listing's price. The caller is responsible for having
// validated the value (see conversation.ParsePrice).
func (s *Store) UpdatePrice(id uint, price string) error {
	return s.updateField(id, "price", price)
}

// UpdateManagerContact sets a listing's manager contact.
func (s *Store) UpdateManagerContact(id uint, contact string) error {
	return s.updateField(id, "manager_contact", contact)
}

func (s *Store) updateField(id uint, column string, value string) error {
	result := s.db.Model(&models.Listing{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("store: update %s for listing %d: %w", column, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListing removes a listing and its photos in one transaction.
func (s *Store) DeleteListing(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Listing{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("listing_id = ?", id).Delete(&models.Photo{}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete listing %d: %w", id, err)
	}
	return nil
}

// RecordView increments a listing's view counter and stamps last_shown_at.
// Every render is a view — including promotional interludes.
func (s *Store) RecordView(id uint) error {
	now := time.Now()
	result := s.db.Model(&models.Listing{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"view_count":    gorm.Expr("view_count + 1"),
		"last_shown_at": &now,
	})
	if result.Error != nil {
		return fmt.Errorf("store: record view for listing %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
