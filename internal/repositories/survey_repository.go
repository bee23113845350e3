package repositories

import (
	"context"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/gorm"
)

// SurveyRepository stores survey definitions and their reporting views.
type SurveyRepository interface {
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error)
	GetBySlugWithDefinition(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error) // Include questions, blocks, grid columns
	List(ctx context.Context, tx *gorm.DB) ([]*models.Survey, error)

	// ReplaceDefinition creates the survey or replaces its question list.
	// Block skip questions are resolved by slug after the questions exist.
	ReplaceDefinition(ctx context.Context, tx *gorm.DB, survey *models.Survey) error

	GetStats(ctx context.Context, tx *gorm.DB, surveyID uint) (*models.SurveyStats, error)
	GridRowLabels(ctx context.Context, tx *gorm.DB, surveyID uint) ([]models.GridRowLabel, error)
}
