package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
)

// MockRepository runs transactions inline with a nil tx
type MockRepository struct {
	mock.Mock
	survey     *MockSurveyRepository
	respondent *MockRespondentRepository
	response   *MockResponseRepository
	place      *MockPlaceRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		survey:     &MockSurveyRepository{},
		respondent: &MockRespondentRepository{},
		response:   &MockResponseRepository{},
		place:      &MockPlaceRepository{},
	}
}

func (m *MockRepository) Survey() repositories.SurveyRepository         { return m.survey }
func (m *MockRepository) Respondent() repositories.RespondentRepository { return m.respondent }
func (m *MockRepository) Response() repositories.ResponseRepository     { return m.response }
func (m *MockRepository) Place() repositories.PlaceRepository           { return m.place }
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

type MockSurveyRepository struct {
	mock.Mock
}

func (m *MockSurveyRepository) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error) {
	args := m.Called(ctx, tx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Survey), args.Error(1)
}

func (m *MockSurveyRepository) GetBySlugWithDefinition(ctx context.Context, tx *gorm.DB, slug string) (*models.Survey, error) {
	args := m.Called(ctx, tx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Survey), args.Error(1)
}

func (m *MockSurveyRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.Survey, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).([]*models.Survey), args.Error(1)
}

func (m *MockSurveyRepository) ReplaceDefinition(ctx context.Context, tx *gorm.DB, survey *models.Survey) error {
	args := m.Called(ctx, tx, survey)
	return args.Error(0)
}

func (m *MockSurveyRepository) GetStats(ctx context.Context, tx *gorm.DB, surveyID uint) (*models.SurveyStats, error) {
	args := m.Called(ctx, tx, surveyID)
	return args.Get(0).(*models.SurveyStats), args.Error(1)
}

func (m *MockSurveyRepository) GridRowLabels(ctx context.Context, tx *gorm.DB, surveyID uint) ([]models.GridRowLabel, error) {
	args := m.Called(ctx, tx, surveyID)
	return args.Get(0).([]models.GridRowLabel), args.Error(1)
}

type MockRespondentRepository struct {
	mock.Mock
}

func (m *MockRespondentRepository) Create(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error {
	args := m.Called(ctx, tx, respondent)
	return args.Error(0)
}

func (m *MockRespondentRepository) GetByUUID(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error) {
	args := m.Called(ctx, tx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Respondent), args.Error(1)
}

func (m *MockRespondentRepository) GetWithResponses(ctx context.Context, tx *gorm.DB, uuid string) (*models.Respondent, error) {
	args := m.Called(ctx, tx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Respondent), args.Error(1)
}

func (m *MockRespondentRepository) Update(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error {
	args := m.Called(ctx, tx, respondent)
	return args.Error(0)
}

func (m *MockRespondentRepository) UpdateReview(ctx context.Context, tx *gorm.DB, uuid string, update *models.ReviewUpdate) error {
	args := m.Called(ctx, tx, uuid, update)
	return args.Error(0)
}

func (m *MockRespondentRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.RespondentFilters) ([]*models.Respondent, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Respondent), args.Get(1).(int64), args.Error(2)
}

func (m *MockRespondentRepository) ListForExport(ctx context.Context, tx *gorm.DB, filters repositories.RespondentFilters) ([]*models.Respondent, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Respondent), args.Error(1)
}

func (m *MockRespondentRepository) CountLocations(ctx context.Context, tx *gorm.DB, uuid string) (int64, error) {
	args := m.Called(ctx, tx, uuid)
	return args.Get(0).(int64), args.Error(1)
}

type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Upsert(ctx context.Context, tx *gorm.DB, response *models.Response) error {
	args := m.Called(ctx, tx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByRespondent(ctx context.Context, tx *gorm.DB, respondentUUID string) ([]*models.Response, error) {
	args := m.Called(ctx, tx, respondentUUID)
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) DeleteByQuestions(ctx context.Context, tx *gorm.DB, respondentUUID string, questionIDs []uint) error {
	args := m.Called(ctx, tx, respondentUUID, questionIDs)
	return args.Error(0)
}

type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) Upsert(ctx context.Context, tx *gorm.DB, place *models.Place) (bool, error) {
	args := m.Called(ctx, tx, place)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlaceRepository) Search(ctx context.Context, tx *gorm.DB, filters repositories.PlaceFilters) ([]*models.Place, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Place), args.Error(1)
}
