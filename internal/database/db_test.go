package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/hvacquote/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestMigrateCreatesCacheEntries(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable(&models.CacheEntry{}))

	entry := models.CacheEntry{Key: "quotes", Value: []byte(`[]`)}
	require.NoError(t, db.Create(&entry).Error)

	var loaded models.CacheEntry
	require.NoError(t, db.Take(&loaded, "key = ?", "quotes").Error)
	require.JSONEq(t, `[]`, string(loaded.Value))
}

func TestMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
