package testutil

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"srefhub/internal/auth"
	"srefhub/internal/database"
	"srefhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbSeq          atomic.Int64
	unsafeDSNChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := unsafeDSNChars.ReplaceAllString(t.Name(), "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with a bcrypt hash of "password123".
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + fmt.Sprintf("+%d@example.com", dbSeq.Add(1)),
		Password: hash,
		Tier:     models.TierFree,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateStyle inserts a minimal style owned by userID.
func CreateStyle(t *testing.T, db *gorm.DB, userID uint, title string) *models.Style {
	t.Helper()
	style := &models.Style{
		Slug:   fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(title, " ", "-")), dbSeq.Add(1)),
		Title:  title,
		Sref:   "123456",
		Images: []string{"https://cdn.example.com/a.jpg"},
		Tags:   []string{"test"},
		UserID: userID,
	}
	require.NoError(t, db.Omit("User").Create(style).Error)
	return style
}

// Age moves a row's created_at into the past so ordering is deterministic.
func Age(t *testing.T, db *gorm.DB, model interface{}, id uint, by time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).
		UpdateColumn("created_at", time.Now().Add(-by)).Error)
}
