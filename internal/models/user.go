package models

import "time"

// User is anyone who has interacted with the bot. Created on first contact;
// NotificationsEnabled is flipped off automatically when the platform reports
// the user has blocked the bot.
type User struct {
	ID                   uint   `gorm:"primaryKey;autoIncrement"`
	ChatIdentity         string `gorm:"size:128;not null;uniqueIndex"`
	UserName             string `gorm:"size:64"`
	FirstName            string `gorm:"size:64"`
	LastName             string `gorm:"size:64"`
	NotificationsEnabled bool   `gorm:"default:true;index"`
	CreatedAt            time.Time
	LastActivityAt       time.Time
}
