package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/cache"
	"github.com/SAP-F-2025/survey-service/internal/events"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// ServiceManager hands the HTTP layer its services
type ServiceManager interface {
	Survey() SurveyService
	Response() ResponseService
	Respondent() RespondentService
	Places() PlacesService
	ImportExport() ImportExportService
	Repository() repositories.Repository
}

type serviceManager struct {
	repo         repositories.Repository
	survey       SurveyService
	response     ResponseService
	respondent   RespondentService
	places       PlacesService
	importExport ImportExportService
}

// NewServiceManager wires every service over one repository. cacheService
// and publisher may be nil.
func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheTTL time.Duration,
) ServiceManager {
	survey := NewSurveyService(repo, cacheService, publisher, logger, validator, cacheTTL)
	return &serviceManager{
		repo:         repo,
		survey:       survey,
		response:     NewResponseService(repo, survey, publisher, logger, validator),
		respondent:   NewRespondentService(repo, publisher, logger, validator),
		places:       NewPlacesService(repo, cacheService, logger, cacheTTL),
		importExport: NewImportExportService(repo, survey, cacheService, logger, validator),
	}
}

func (m *serviceManager) Survey() SurveyService             { return m.survey }
func (m *serviceManager) Response() ResponseService         { return m.response }
func (m *serviceManager) Respondent() RespondentService     { return m.respondent }
func (m *serviceManager) Places() PlacesService             { return m.places }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
func (m *serviceManager) Repository() repositories.Repository {
	return m.repo
}
