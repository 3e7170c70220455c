package models

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry is one key of the local persistence store when it is backed by the SQL database.
// Values are always JSON documents (collections or cache metadata).
type CacheEntry struct {
	Key       string         `gorm:"primaryKey;size:128"`
	Value     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (CacheEntry) TableName() string {
	return "cache_entries"
}
