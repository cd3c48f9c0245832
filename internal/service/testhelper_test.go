package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"examly-backend/internal/db"
	"examly-backend/internal/model"
)

// setupTestDB points the package-global handle at a fresh in-memory sqlite
// database. One connection only, so ":memory:" stays a single database.
func setupTestDB(t *testing.T) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&model.User{},
		&model.ProgressRecord{},
		&model.TaskResult{},
		&model.ActivityEntry{},
		&model.Mistake{},
		&model.FlashcardSet{},
		&model.Flashcard{},
		&model.DailyPlan{},
		&model.Preferences{},
		&model.VocabCursor{},
	))

	db.SetDB(conn)
}
