package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhuravin/rentline/internal/models"
)

// Stats aggregates listing and user counts for the admin statistics view and
// the scheduled digest.
type Stats struct {
	TotalListings   int64
	PromoListings   int64
	TotalPhotos     int64
	TotalUsers      int64
	SubscribedUsers int64
	HighestPrice    float64
	HasHighestPrice bool
	TopViewed       *models.Listing
}

// CollectStats gathers statistics in one pass over the store. Prices are
// stored as normalized decimal text; rows whose price does not parse are
// skipped for the highest-price figure.
func (s *Store) CollectStats() (*Stats, error) {
	var st Stats

	if err := s.db.Model(&models.Listing{}).Where("is_promotional = ?", false).Count(&st.TotalListings).Error; err != nil {
		return nil, fmt.Errorf("store: count listings: %w", err)
	}
	if err := s.db.Model(&models.Listing{}).Where("is_promotional = ?", true).Count(&st.PromoListings).Error; err != nil {
		return nil, fmt.Errorf("store: count promos: %w", err)
	}
	if err := s.db.Model(&models.Photo{}).Count(&st.TotalPhotos).Error; err != nil {
		return nil, fmt.Errorf("store: count photos: %w", err)
	}
	if err := s.db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("store: count users: %w", err)
	}
	if err := s.db.Model(&models.User{}).Where("notifications_enabled = ?", true).Count(&st.SubscribedUsers).Error; err != nil {
		return nil, fmt.Errorf("store: count subscribers: %w", err)
	}

	var prices []string
	if err := s.db.Model(&models.Listing{}).Where("is_promotional = ?", false).Pluck("price", &prices).Error; err != nil {
		return nil, fmt.Errorf("store: pluck prices: %w", err)
	}
	for _, p := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			continue
		}
		if !st.HasHighestPrice || v > st.HighestPrice {
			st.HighestPrice = v
			st.HasHighestPrice = true
		}
	}

	var top models.Listing
	err := s.db.Where("is_promotional = ?", false).Order("view_count DESC").First(&top).Error
	if err == nil && top.ViewCount > 0 {
		st.TopViewed = &top
	}

	return &st, nil
}
