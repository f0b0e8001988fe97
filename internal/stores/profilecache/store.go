package profilecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryModel is the database representation of one cached profile.
type EntryModel struct {
	CacheKey  string    `gorm:"primaryKey;size:512"`
	Data      string    `gorm:"type:text"`
	CachedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// TableName overrides the default table name
func (EntryModel) TableName() string {
	return "cache_entries"
}

// Store is the MySQL-backed profile cache.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new profile cache with GORM connection
func NewStore(databaseURL string) (*Store, error) {
	db, err := gorm.Open(gormmysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewStoreWithDB(db)
}

// NewStoreWithDB wraps an existing GORM connection
func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Get retrieves cached profile data, returning ErrMiss when the key is
// absent or expired.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var entry EntryModel
	err := s.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", key, time.Now().UTC()).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return json.RawMessage(entry.Data), nil
}

// Put stores profile data under the key, overwriting any previous entry
// wholesale.
func (s *Store) Put(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) error {
	now := time.Now().UTC()
	entry := EntryModel{
		CacheKey:  key,
		Data:      string(data),
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// PurgeExpired deletes entries whose expiry has passed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&EntryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", result.Error)
	}

	return result.RowsAffected, nil
}
