package cache

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/hvacquote/internal/models"
)

// DatabaseStore implements Store on top of the cache_entries table. Conditions use map
// clauses so the reserved "key" column is quoted on every dialect.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Get retrieves a value by key.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, ErrStoreClosed
	}

	var entry models.CacheEntry
	err := s.db.WithContext(ensureContext(ctx)).Where(map[string]any{"key": key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(entry.Value), true, nil
}

// Set upserts the value for a given key.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte) error {
	if s == nil {
		return ErrStoreClosed
	}
	return upsert(s.db.WithContext(ensureContext(ctx)), key, value)
}

// SetMany upserts all entries inside one transaction.
func (s *DatabaseStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	if s == nil {
		return ErrStoreClosed
	}
	if len(entries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.db.WithContext(ensureContext(ctx)).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			if err := upsert(tx, key, entries[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return ErrStoreClosed
	}
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ensureContext(ctx)).Where(map[string]any{"key": keys}).Delete(&models.CacheEntry{}).Error
}

// Ping checks the underlying SQL connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	if s == nil {
		return ErrStoreClosed
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ensureContext(ctx))
}

func upsert(db *gorm.DB, key string, value []byte) error {
	entry := models.CacheEntry{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
