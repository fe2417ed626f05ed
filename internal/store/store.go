// Package store is the persistence layer for listings, photos and users.
// Every multi-row operation (listing creation, photo replacement, cascade
// delete) runs inside a single transaction so browsing readers never observe
// a partially written listing.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced listing or user no longer exists.
// Callers degrade to a safe default instead of surfacing this to the user.
var ErrNotFound = errors.New("store: not found")

// Store wraps a GORM connection with Rentline's persistence operations.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection for read-only consumers (dashboard).
func (s *Store) DB() *gorm.DB {
	return s.db
}
