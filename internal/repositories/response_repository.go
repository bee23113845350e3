package repositories

import (
	"context"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/gorm"
)

type ResponseRepository interface {
	// Upsert stores the response for (respondent, question), replacing the
	// previous answer and all of its related rows.
	Upsert(ctx context.Context, tx *gorm.DB, response *models.Response) error
	GetByRespondent(ctx context.Context, tx *gorm.DB, respondentUUID string) ([]*models.Response, error)
	DeleteByQuestions(ctx context.Context, tx *gorm.DB, respondentUUID string, questionIDs []uint) error
}
