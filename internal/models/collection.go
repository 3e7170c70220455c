package models

import (
	"fmt"
	"strings"
)

// Collection names one of the cached domain collections. The value doubles as its storage key.
type Collection string

const (
	CollectionQuotes   Collection = "quotes"
	CollectionClients  Collection = "clients"
	CollectionSites    Collection = "sites"
	CollectionSupplies Collection = "supplies"
)

// MetadataKey is the storage key holding CacheMetadata.
const MetadataKey = "cache_metadata"

// Collections lists every cached collection in storage order.
func Collections() []Collection {
	return []Collection{CollectionQuotes, CollectionClients, CollectionSites, CollectionSupplies}
}

// Key returns the storage key for the collection.
func (c Collection) Key() string {
	return string(c)
}

// ParseCollection resolves a collection name case-insensitively.
func ParseCollection(name string) (Collection, error) {
	candidate := Collection(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range Collections() {
		if c == candidate {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", name)
}

// Snapshot holds one full copy of every collection, as fetched from the upstream API.
type Snapshot struct {
	Quotes   []Quote
	Clients  []Client
	Sites    []Site
	Supplies []SupplyItem
}
