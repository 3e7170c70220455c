package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordTouchGeneratesIDAndTimestamps(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

	var rec Record
	rec.Touch(now)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, now, rec.CreatedAt)
	require.Equal(t, now, rec.UpdatedAt)

	id := rec.ID
	later := now.Add(time.Hour)
	rec.Touch(later)
	require.Equal(t, id, rec.ID)
	require.Equal(t, now, rec.CreatedAt)
	require.Equal(t, later, rec.UpdatedAt)
}

func TestParseCollection(t *testing.T) {
	for _, c := range Collections() {
		parsed, err := ParseCollection(" " + string(c) + " ")
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	parsed, err := ParseCollection("Quotes")
	require.NoError(t, err)
	require.Equal(t, CollectionQuotes, parsed)

	_, err = ParseCollection("invoices")
	require.Error(t, err)
}

func TestQuoteGroupKey(t *testing.T) {
	require.Equal(t, "q1", Quote{Record: Record{ID: "q1"}}.GroupKey())
	require.Equal(t, "root", Quote{Record: Record{ID: "q2"}, ParentID: "root"}.GroupKey())
}

func TestSplitLabel(t *testing.T) {
	require.Equal(t, "Daikin 12k", Split{Name: "Daikin 12k", Code: "D12"}.Label())
	require.Equal(t, "wall unit", Split{Description: "wall unit", Code: "W1"}.Label())
	require.Equal(t, "W1", Split{Code: "W1"}.Label())
}

func TestNewCacheMetadataIsFresh(t *testing.T) {
	now := time.Now()
	meta := NewCacheMetadata("1.0.0", now)
	require.False(t, meta.IsStale)
	require.Equal(t, "1.0.0", meta.Version)
	require.Equal(t, now, meta.LastUpdated)
}
