package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/survey-service/internal/events"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// RespondentService lists and reviews collected respondents
type RespondentService interface {
	List(ctx context.Context, filters repositories.RespondentFilters) ([]*models.Respondent, int64, error)
	Get(ctx context.Context, respondentUUID string) (*models.Respondent, error)
	UpdateReview(ctx context.Context, respondentUUID string, req *models.ReviewUpdate) (*models.Respondent, error)
}

type respondentService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRespondentService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) RespondentService {
	return &respondentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *respondentService) List(ctx context.Context, filters repositories.RespondentFilters) ([]*models.Respondent, int64, error) {
	if _, err := s.repo.Survey().GetBySlug(ctx, nil, filters.SurveySlug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSurveyNotFound
		}
		return nil, 0, fmt.Errorf("failed to get survey: %w", err)
	}

	respondents, total, err := s.repo.Respondent().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list respondents: %w", err)
	}
	return respondents, total, nil
}

func (s *respondentService) Get(ctx context.Context, respondentUUID string) (*models.Respondent, error) {
	respondent, err := s.repo.Respondent().GetWithResponses(ctx, nil, respondentUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRespondentNotFound
		}
		return nil, fmt.Errorf("failed to get respondent: %w", err)
	}
	return respondent, nil
}

func (s *respondentService) UpdateReview(ctx context.Context, respondentUUID string, req *models.ReviewUpdate) (*models.Respondent, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	if err := s.repo.Respondent().UpdateReview(ctx, nil, respondentUUID, req); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRespondentNotFound
		}
		return nil, err
	}
	s.logger.Info("Respondent reviewed", "respondent", respondentUUID, "review_status", req.ReviewStatus)
	publishEvent(ctx, s.publisher, s.logger, events.NewRespondentReviewedEvent(models.NormalizeUUID(respondentUUID), string(req.ReviewStatus), req.ReviewComment))

	respondent, err := s.repo.Respondent().GetByUUID(ctx, nil, respondentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload respondent: %w", err)
	}
	return respondent, nil
}
