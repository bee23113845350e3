package repositories

import (
	"context"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/gorm"
)

type RespondentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error
	GetByUUID(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error)
	GetWithResponses(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error)
	Update(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error

	UpdateReview(ctx context.Context, tx *gorm.DB, uuid string, update *models.ReviewUpdate) error
	List(ctx context.Context, tx *gorm.DB, filters RespondentFilters) ([]*models.Respondent, int64, error)
	// ListForExport returns matching respondents with responses and questions loaded.
	ListForExport(ctx context.Context, tx *gorm.DB, filters RespondentFilters) ([]*models.Respondent, error)
	CountLocations(ctx context.Context, tx *gorm.DB, uuid string) (int64, error)
}
