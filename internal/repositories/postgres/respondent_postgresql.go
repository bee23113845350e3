package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultRespondentLimit = 50

type RespondentPostgreSQL struct {
	db *gorm.DB
}

func NewRespondentPostgreSQL(db *gorm.DB) repositories.RespondentRepository {
	return &RespondentPostgreSQL{db: db}
}

func (r *RespondentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(respondent).Error; err != nil {
		return fmt.Errorf("failed to create respondent: %w", err)
	}
	return nil
}

func (r *RespondentPostgreSQL) GetByUUID(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error) {
	db := r.getDB(tx)
	var respondent models.Respondent
	if err := db.WithContext(ctx).Where("uuid = ?", models.NormalizeUUID(uuid)).First(&respondent).Error; err != nil {
		return nil, err
	}
	return &respondent, nil
}

// GetWithResponses loads the respondent with every response and its question
func (r *RespondentPostgreSQL) GetWithResponses(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error) {
	db := r.getDB(tx)
	var respondent models.Respondent
	err := db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("ts ASC")
		}).
		Preload("Responses.Question").
		Preload("Responses.GridAnswers").
		Where("uuid = ?", models.NormalizeUUID(uuid)).
		First(&respondent).Error
	if err != nil {
		return nil, err
	}
	return &respondent, nil
}

func (r *RespondentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(respondent).Error; err != nil {
		return fmt.Errorf("failed to update respondent: %w", err)
	}
	return nil
}

func (r *RespondentPostgreSQL) UpdateReview(ctx context.Context, tx *gorm.DB, uuid string, update *models.ReviewUpdate) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Respondent{}).
		Where("uuid = ?", models.NormalizeUUID(uuid)).
		Updates(map[string]any{
			"review_status":  update.ReviewStatus,
			"review_comment": update.ReviewComment,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List retrieves respondents with filters and pagination, newest first
func (r *RespondentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.RespondentFilters) ([]*models.Respondent, int64, error) {
	query := r.applyFilters(r.getDB(tx).WithContext(ctx).Model(&models.Respondent{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultRespondentLimit
	}

	var respondents []*models.Respondent
	err := query.Order("respondents.ts DESC").Limit(limit).Offset(filters.Offset).Find(&respondents).Error
	if err != nil {
		return nil, 0, err
	}
	return respondents, total, nil
}

func (r *RespondentPostgreSQL) ListForExport(ctx context.Context, tx *gorm.DB, filters repositories.RespondentFilters) ([]*models.Respondent, error) {
	query := r.applyFilters(r.getDB(tx).WithContext(ctx).Model(&models.Respondent{}), filters)

	var respondents []*models.Respondent
	err := query.
		Preload("Responses").
		Preload("Responses.Question").
		Preload("Responses.GridAnswers").
		Order("respondents.ts DESC").
		Find(&respondents).Error
	if err != nil {
		return nil, err
	}
	return respondents, nil
}

func (r *RespondentPostgreSQL) CountLocations(ctx context.Context, tx *gorm.DB, uuid string) (int64, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Location{}).
		Where("respondent_uuid = ?", models.NormalizeUUID(uuid)).
		Count(&count).Error
	return count, err
}

func (r *RespondentPostgreSQL) applyFilters(query *gorm.DB, filters repositories.RespondentFilters) *gorm.DB {
	if filters.SurveySlug != "" {
		query = query.Joins("JOIN surveys ON surveys.id = respondents.survey_id").
			Where("surveys.slug = ?", filters.SurveySlug)
	}
	if filters.StartDate != nil {
		query = query.Where("respondents.ts >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		// end date is inclusive
		query = query.Where("respondents.ts < ?", filters.EndDate.AddDate(0, 0, 1))
	}
	if filters.Market != "" {
		query = query.Where("respondents.survey_site = ?", filters.Market)
	}
	if filters.Surveyor != "" {
		query = query.Where("respondents.surveyor = ?", filters.Surveyor)
	}
	if filters.ReviewStatus != nil {
		query = query.Where("respondents.review_status = ?", *filters.ReviewStatus)
	}
	return query
}

func (r *RespondentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
