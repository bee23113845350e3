package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

// Upsert keeps one response per respondent and question. A resubmitted
// answer replaces the row in place and rebuilds its related rows.
func (r *ResponsePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, response *models.Response) error {
	db := r.getDB(tx).WithContext(ctx)

	var existing models.Response
	err := db.Select("id", "ts").
		Where("respondent_uuid = ? AND question_id = ?", response.RespondentUUID, response.QuestionID).
		First(&existing).Error
	switch {
	case err == nil:
		response.ID = existing.ID
		if response.TS.IsZero() {
			response.TS = existing.TS
		}
		if err := r.deleteRelated(db, []uint{existing.ID}); err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.ID = 0
	default:
		return fmt.Errorf("failed to look up response: %w", err)
	}

	if err := db.Omit("Question", "Respondent").Save(response).Error; err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByRespondent(ctx context.Context, tx *gorm.DB, respondentUUID string) ([]*models.Response, error) {
	db := r.getDB(tx)
	var responses []*models.Response
	err := db.WithContext(ctx).
		Preload("Question").
		Where("respondent_uuid = ?", models.NormalizeUUID(respondentUUID)).
		Order("ts ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// DeleteByQuestions removes the respondent's responses to the given
// questions together with their related rows
func (r *ResponsePostgreSQL) DeleteByQuestions(ctx context.Context, tx *gorm.DB, respondentUUID string, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	db := r.getDB(tx).WithContext(ctx)

	var ids []uint
	err := db.Model(&models.Response{}).
		Where("respondent_uuid = ? AND question_id IN ?", models.NormalizeUUID(respondentUUID), questionIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to find responses: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.deleteRelated(db, ids); err != nil {
		return err
	}
	if err := db.Where("id IN ?", ids).Delete(&models.Response{}).Error; err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) deleteRelated(db *gorm.DB, responseIDs []uint) error {
	locations := db.Model(&models.Location{}).Select("id").Where("response_id IN ?", responseIDs)
	if err := db.Where("location_id IN (?)", locations).Delete(&models.LocationAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete location answers: %w", err)
	}
	if err := db.Where("response_id IN ?", responseIDs).Delete(&models.Location{}).Error; err != nil {
		return fmt.Errorf("failed to delete locations: %w", err)
	}
	if err := db.Where("response_id IN ?", responseIDs).Delete(&models.MultiAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete multi answers: %w", err)
	}
	if err := db.Where("response_id IN ?", responseIDs).Delete(&models.GridAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete grid answers: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
