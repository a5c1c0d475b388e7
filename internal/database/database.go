package database

import (
	"fmt"

	"matchbot-server/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the PostgreSQL connection and migrates the schema.
// SQL statements are logged only in gin's debug mode.
func Initialize(databaseURL, ginMode string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if ginMode == "debug" {
		logLevel = logger.Info
	}

	// Configure GORM
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Like{},
		&models.LikeInboxEntry{},
		&models.ViewEvent{},
		&models.Complaint{},
		&models.Payment{},
		&models.AppSetting{},
	)
}
