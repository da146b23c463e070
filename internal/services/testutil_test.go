package services

import (
	"testing"
	"time"

	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/timeline"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite gives each connection its own database; pin the pool
	// to one connection so every query sees the same schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.Group{},
		&models.FYI{},
		&models.ActiveFYI{},
		&models.Reaction{},
		&models.SeenBy{},
		&models.TimelineItem{},
		&models.OTPSession{},
		&models.RefreshToken{},
	))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, phone, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		Phone:    phone,
		Name:     name,
		LastSeen: time.Now(),
	}).Error)
}

func createMutualContact(t *testing.T, db *gorm.DB, owner, number, savedName string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Contact{
		OwnerPhone:  owner,
		PhoneNumber: number,
		SavedName:   savedName,
		IsMutual:    true,
		AddedAt:     time.Now(),
	}).Error)
}

func newTestFYIService(t *testing.T) (*FYIService, *gorm.DB, *timeline.Hub) {
	t.Helper()
	db := setupTestDB(t)
	hub := timeline.NewHub()
	return NewFYIService(db, hub), db, hub
}
