package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/survey-service/internal/config"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the survey tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Survey{},
		&models.Question{},
		&models.Option{},
		&models.Block{},
		&models.Respondent{},
		&models.Response{},
		&models.MultiAnswer{},
		&models.GridAnswer{},
		&models.Location{},
		&models.LocationAnswer{},
		&models.Place{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
