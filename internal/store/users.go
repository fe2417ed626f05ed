package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zhuravin/rentline/internal/models"
)

// UpsertUser registers a user on first contact or refreshes their display
// fields and activity timestamp on subsequent ones. NotificationsEnabled is
// never touched here — only the explicit toggle and delivery failures mutate it.
func (s *Store) UpsertUser(chatIdentity, userName, firstName, lastName string) (*models.User, error) {
	user := models.User{
		ChatIdentity:         chatIdentity,
		UserName:             userName,
		FirstName:            firstName,
		LastName:             lastName,
		NotificationsEnabled: true,
		LastActivityAt:       time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "first_name", "last_name", "last_activity_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("store: upsert user %s: %w", chatIdentity, err)
	}
	// Re-read so the caller sees the stored row (the upsert leaves defaults
	// and the pre-existing notification flag untouched).
	return s.GetUser(chatIdentity)
}

// GetUser fetches a user by chat identity.
func (s *Store) GetUser(chatIdentity string) (*models.User, error) {
	var user models.User
	err := s.db.Where("chat_identity = ?", chatIdentity).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %s: %w", chatIdentity, err)
	}
	return &user, nil
}

// ToggleNotifications flips a user's notification opt-in and returns the new
// value.
func (s *Store) ToggleNotifications(chatIdentity string) (bool, error) {
	user, err := s.GetUser(chatIdentity)
	if err != nil {
		return false, err
	}
	enabled := !user.NotificationsEnabled
	if err := s.SetNotifications(chatIdentity, enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// SetNotifications sets a user's notification opt-in durably.
func (s *Store) SetNotifications(chatIdentity string, enabled bool) error {
	result := s.db.Model(&models.User{}).Where("chat_identity = ?", chatIdentity).
		Update("notifications_enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("store: set notifications for %s: %w", chatIdentity, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NotificationRecipients returns a snapshot of all opted-in users, excluding
// the given identities (administrators). The fan-out iterates this snapshot
// and mutates user rows afterward, never the live result set.
func (s *Store) NotificationRecipients(exclude []string) ([]models.User, error) {
	q := s.db.Where("notifications_enabled = ?", true)
	if len(exclude) > 0 {
		q = q.Where("chat_identity NOT IN ?", exclude)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("store: notification recipients: %w", err)
	}
	return users, nil
}
