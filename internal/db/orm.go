package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"upfitter/showroom/internal/logging"
	gormModels "upfitter/showroom/internal/models/gorm"
)

// IsPostgresDSN reports whether dsn addresses a postgres server rather than
// a sqlite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenORM opens the identity registry database and migrates its schema.
// Postgres URLs use the postgres driver; anything else is a sqlite path.
func OpenORM(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	if IsPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity registry: %w", err)
	}

	if !IsPostgresDSN(dsn) {
		// One connection, so in-memory databases are shared with sqlx.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&gormModels.ContentIdentity{}); err != nil {
		return nil, fmt.Errorf("failed to migrate identity registry: %w", err)
	}

	logging.Info("Connected to identity registry via GORM", "postgres", IsPostgresDSN(dsn))
	return db, nil
}
