package db

import (
	"fmt"
	"log"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"examly-backend/internal/config"
)

var (
	database *gorm.DB
	dbOnce   sync.Once
)

// InitDBFromConfig opens the database described by the DB section of the
// config. Driver "sqlite" serves single-user local installs; "postgres" is
// the hosted default.
func InitDBFromConfig(cfg *config.APIConfig) {
	dbOnce.Do(func() {
		var dialector gorm.Dialector

		switch cfg.DB.Driver {
		case "sqlite":
			path := cfg.DB.SQLitePath
			if path == "" {
				path = "examly.db"
			}
			dialector = sqlite.Open(path)
		default:
			dsn := fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.Username,
				cfg.DB.Password.Value, cfg.DB.Name, cfg.DB.SSLMode,
			)
			dialector = postgres.Open(dsn)
		}

		conn, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		database = conn
	})
}

// SetDB replaces the global handle. Tests use this with an in-memory sqlite DB.
func SetDB(conn *gorm.DB) {
	database = conn
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return database
}
