package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyPostgreSQL struct {
	db *gorm.DB
}

func NewSurveyPostgreSQL(db *gorm.DB) repositories.SurveyRepository {
	return &SurveyPostgreSQL{db: db}
}

// GetBySlug retrieves a survey without its questions
func (s *SurveyPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error) {
	db := s.getDB(tx)
	var survey models.Survey
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&survey).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

// GetBySlugWithDefinition retrieves a survey with questions in page order,
// their blocks and grid columns
func (s *SurveyPostgreSQL) GetBySlugWithDefinition(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error) {
	db := s.getDB(tx)
	var survey models.Survey
	err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Questions.Blocks").
		Preload("Questions.Blocks.SkipQuestion").
		Preload("Questions.GridCols", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("slug = ?", slug).
		First(&survey).Error
	if err != nil {
		return nil, err
	}

	for i := range survey.Questions {
		for j := range survey.Questions[i].Blocks {
			b := &survey.Questions[i].Blocks[j]
			if b.SkipQuestion != nil {
				b.SkipQuestionSlug = b.SkipQuestion.Slug
			}
		}
	}
	return &survey, nil
}

func (s *SurveyPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Survey, error) {
	db := s.getDB(tx)
	var surveys []*models.Survey
	if err := db.WithContext(ctx).Order("name ASC").Find(&surveys).Error; err != nil {
		return nil, err
	}
	return surveys, nil
}

// ReplaceDefinition upserts the survey by slug. Questions keep their ids when
// the slug is unchanged so stored responses stay attached; blocks and grid
// columns are recreated.
func (s *SurveyPostgreSQL) ReplaceDefinition(ctx context.Context, tx *gorm.DB, survey *models.Survey) error {
	db := s.getDB(tx).WithContext(ctx)

	previous := map[string]uint{}
	var existing models.Survey
	err := db.Preload("Questions").Where("slug = ?", survey.Slug).First(&existing).Error
	switch {
	case err == nil:
		survey.ID = existing.ID
		survey.CreatedAt = existing.CreatedAt
		for _, q := range existing.Questions {
			previous[q.Slug] = q.ID
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		survey.ID = 0
	default:
		return fmt.Errorf("failed to load survey: %w", err)
	}

	questions := survey.Questions
	survey.Questions = nil
	if err := db.Omit(clause.Associations).Save(survey).Error; err != nil {
		return fmt.Errorf("failed to save survey: %w", err)
	}

	ids := make(map[string]uint, len(questions))
	for i := range questions {
		q := &questions[i]
		q.ID = previous[q.Slug]
		if err := db.Omit(clause.Associations).Save(q).Error; err != nil {
			return fmt.Errorf("failed to save question %s: %w", q.Slug, err)
		}
		ids[q.Slug] = q.ID

		cols := q.GridCols
		for j := range cols {
			cols[j].ID = 0
		}
		if err := db.Model(q).Association("GridCols").Replace(&cols); err != nil {
			return fmt.Errorf("failed to save grid columns of %s: %w", q.Slug, err)
		}
	}

	// Blocks may reference any question of the survey, so they go in once
	// every question has an id.
	for i := range questions {
		q := &questions[i]
		blocks := q.Blocks
		for j := range blocks {
			b := &blocks[j]
			b.ID = 0
			b.SkipQuestion = nil
			b.SkipQuestionID = nil
			if slug := b.ReferenceSlug(); slug != "" {
				id, ok := ids[slug]
				if !ok {
					return fmt.Errorf("question %s: block references unknown question %s", q.Slug, slug)
				}
				b.SkipQuestionID = &id
			}
		}
		if err := db.Model(q).Association("Blocks").Replace(&blocks); err != nil {
			return fmt.Errorf("failed to save blocks of %s: %w", q.Slug, err)
		}
	}

	pages := make([]models.Question, len(questions))
	for i := range questions {
		pages[i] = questions[i]
		pages[i].Blocks = nil
		pages[i].GridCols = nil
	}
	if err := db.Model(survey).Association("Questions").Replace(&pages); err != nil {
		return fmt.Errorf("failed to save survey pages: %w", err)
	}

	survey.Questions = questions
	return nil
}

func (s *SurveyPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, surveyID uint) (*models.SurveyStats, error) {
	db := s.getDB(tx).WithContext(ctx)
	stats := &models.SurveyStats{}
	respondents := func() *gorm.DB {
		return db.Model(&models.Respondent{}).Where("survey_id = ?", surveyID)
	}

	if err := respondents().Count(&stats.SurveyResponses).Error; err != nil {
		return nil, err
	}
	if err := respondents().Where("complete = ?", true).Count(&stats.Completes).Error; err != nil {
		return nil, err
	}
	if err := respondents().Where("review_status = ?", models.ReviewNeeded).Count(&stats.ReviewsNeeded).Error; err != nil {
		return nil, err
	}
	if err := respondents().Where("review_status = ?", models.ReviewFlagged).Count(&stats.Flagged).Error; err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := respondents().Where("ts >= ?", today).Count(&stats.Today).Error; err != nil {
		return nil, err
	}

	var span struct {
		First *time.Time
		Last  *time.Time
	}
	if err := respondents().Select("MIN(ts) AS first, MAX(ts) AS last").Scan(&span).Error; err != nil {
		return nil, err
	}
	stats.ResponseDateStart = span.First
	stats.ResponseDateEnd = span.Last

	err := db.Model(&models.Location{}).
		Joins("JOIN respondents ON respondents.uuid = locations.respondent_uuid").
		Where("respondents.survey_id = ?", surveyID).
		Count(&stats.ActivityPoints).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GridRowLabels lists the distinct grid rows stored for the survey's questions
func (s *SurveyPostgreSQL) GridRowLabels(ctx context.Context, tx *gorm.DB, surveyID uint) ([]models.GridRowLabel, error) {
	db := s.getDB(tx)
	var labels []models.GridRowLabel
	err := db.WithContext(ctx).
		Table("grid_answers").
		Select("DISTINCT responses.question_id AS question_id, grid_answers.row_label AS label, COALESCE(grid_answers.row_text, grid_answers.row_label) AS text").
		Joins("JOIN responses ON responses.id = grid_answers.response_id").
		Joins("JOIN survey_pages ON survey_pages.question_id = responses.question_id").
		Where("survey_pages.survey_id = ? AND grid_answers.row_label IS NOT NULL", surveyID).
		Order("label ASC").
		Scan(&labels).Error
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func (s *SurveyPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
