package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/cache"
	"github.com/SAP-F-2025/survey-service/internal/events"
	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
	govalidator "github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// SurveyService serves survey definitions and their dashboard figures
type SurveyService interface {
	List(ctx context.Context) ([]*models.Survey, error)
	GetDefinition(ctx context.Context, slug string) (*models.Survey, error)
	// Navigator builds the flow for a survey from its cached definition.
	Navigator(ctx context.Context, slug string) (*models.Survey, *flow.Navigator, error)
	LoadDefinition(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	GetStats(ctx context.Context, slug string) (*models.SurveyStats, error)
}

type surveyService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	cacheTTL  time.Duration
}

func NewSurveyService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheTTL time.Duration,
) SurveyService {
	return &surveyService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		cacheTTL:  cacheTTL,
	}
}

func definitionCacheKey(slug string) string {
	return "survey:definition:" + slug
}

func (s *surveyService) List(ctx context.Context) ([]*models.Survey, error) {
	surveys, err := s.repo.Survey().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	return surveys, nil
}

func (s *surveyService) GetDefinition(ctx context.Context, slug string) (*models.Survey, error) {
	key := definitionCacheKey(slug)
	if s.cache != nil {
		var cached models.Survey
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Survey cache unavailable", "slug", slug, "error", err)
		}
	}

	survey, err := s.repo.Survey().GetBySlugWithDefinition(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, survey, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache survey definition", "slug", slug, "error", err)
		}
	}
	return survey, nil
}

func (s *surveyService) Navigator(ctx context.Context, slug string) (*models.Survey, *flow.Navigator, error) {
	survey, err := s.GetDefinition(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	def, err := flow.NewDefinition(survey)
	if err != nil {
		s.logger.Error("Stored survey definition is invalid", "slug", slug, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrSurveyInvalidDefinition, err)
	}
	return survey, flow.NewNavigator(def), nil
}

// LoadDefinition validates a full survey definition and stores it in place
// of the current one.
func (s *surveyService) LoadDefinition(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	s.logger.Info("Loading survey definition", "slug", survey.Slug, "questions", len(survey.Questions))

	if err := s.validator.Validate(survey); err != nil {
		var fieldErrs govalidator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return nil, validator.ToValidationErrors(fieldErrs)
		}
		return nil, fmt.Errorf("%w: %v", ErrSurveyInvalidDefinition, err)
	}
	if _, err := flow.NewDefinition(survey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurveyInvalidDefinition, err)
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.Survey().ReplaceDefinition(ctx, tx, survey)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store survey definition: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, definitionCacheKey(survey.Slug)); err != nil {
			s.logger.Warn("Failed to invalidate survey cache", "slug", survey.Slug, "error", err)
		}
	}
	publishEvent(ctx, s.publisher, s.logger, events.NewSurveyDefinitionLoadedEvent(survey.Slug, len(survey.Questions)))

	s.logger.Info("Survey definition loaded", "slug", survey.Slug, "survey_id", survey.ID)
	return s.GetDefinition(ctx, survey.Slug)
}

func (s *surveyService) GetStats(ctx context.Context, slug string) (*models.SurveyStats, error) {
	survey, err := s.repo.Survey().GetBySlug(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	stats, err := s.repo.Survey().GetStats(ctx, nil, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey stats: %w", err)
	}
	return stats, nil
}
