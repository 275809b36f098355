package database

import (
	"fmt"
	"time"

	"scanner-registry/internal/config"
	"scanner-registry/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres, tunes the pool and migrates the schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: newGormLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database connected, migration complete")
	return db, nil
}

// Migrate creates or updates the branches, scanner_records and users tables.
// Branch carries the has-many side so the scanner_records.branch_id foreign
// key is created with ON DELETE SET NULL.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Branch{},
		&models.ScannerRecord{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// newGormLogger routes GORM's SQL log through zap.
func newGormLogger(log *zap.Logger, level string) logger.Interface {
	gormLevel := logger.Error
	switch level {
	case "debug":
		gormLevel = logger.Info
	case "info":
		gormLevel = logger.Warn
	}
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  gormLevel,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}
