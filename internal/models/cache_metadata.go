package models

import "time"

// CacheMetadata is the persisted record controlling refresh decisions.
type CacheMetadata struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Version     string    `json:"version"`
	IsStale     bool      `json:"isStale"`
}

// NewCacheMetadata returns fresh, non-stale metadata stamped at now.
func NewCacheMetadata(version string, now time.Time) CacheMetadata {
	return CacheMetadata{
		LastUpdated: now,
		Version:     version,
		IsStale:     false,
	}
}
