package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the row layout used by GORMStorage.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;type:varchar(191)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName keeps the table name independent of the Go type name.
func (Entry) TableName() string {
	return "storage_entries"
}

// GORMStorage is a GORM implementation of Storage.
type GORMStorage struct {
	db *gorm.DB
}

// NewGORMStorage creates a new instance of GORMStorage.
func NewGORMStorage(db *gorm.DB) *GORMStorage {
	return &GORMStorage{
		db: db,
	}
}

// Get retrieves the value stored under key from the database.
func (s *GORMStorage) Get(key string) (string, bool, error) {
	var entry Entry
	if err := s.db.First(&entry, "entry_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get storage key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set inserts or overwrites the value stored under key.
func (s *GORMStorage) Set(key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set storage key %s: %w", key, err)
	}
	return nil
}

// Delete removes key from the database. Missing keys are not an error.
func (s *GORMStorage) Delete(key string) error {
	if err := s.db.Delete(&Entry{}, "entry_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete storage key %s: %w", key, err)
	}
	return nil
}
