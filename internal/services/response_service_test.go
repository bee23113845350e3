package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/survey-service/internal/events"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureSurvey() *models.Survey {
	return &models.Survey{ID: 7, Name: "Catch report", Slug: "catch-report", Questions: []models.Question{
		{ID: 1, Title: "Welcome", Order: 0, Slug: "intro", Type: models.QuestionInfo},
		{ID: 2, Title: "Boats", Label: "Boats", Order: 1, Slug: "boats", Type: models.QuestionInteger, Required: true},
		{ID: 3, Title: "Boat names", Order: 2, Slug: "boat-names", Type: models.QuestionText, Required: true,
			Blocks: []models.Block{{SkipQuestionSlug: "boats", SkipCondition: strPtr(">0")}}},
		{ID: 4, Title: "Consent", Order: 3, Slug: "consent", Type: models.QuestionYesNo, Required: true, TermCondition: strPtr("=no")},
	}}
}

type fixture struct {
	repo      *MockRepository
	publisher *events.MockEventPublisher
	surveys   SurveyService
	responses ResponseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	v := validator.New()
	surveys := NewSurveyService(repo, nil, publisher, testLogger(), v, time.Minute)
	repo.survey.On("GetBySlugWithDefinition", mock.Anything, mock.Anything, "catch-report").Return(fixtureSurvey(), nil)
	return &fixture{
		repo:      repo,
		publisher: publisher,
		surveys:   surveys,
		responses: NewResponseService(repo, surveys, publisher, testLogger(), v),
	}
}

func (f *fixture) expectRefresh(uuid string) {
	f.repo.respondent.On("CountLocations", mock.Anything, mock.Anything, uuid).Return(int64(0), nil)
	f.repo.respondent.On("GetWithResponses", mock.Anything, mock.Anything, uuid).Return(&models.Respondent{UUID: uuid}, nil)
}

func TestResponseService_SubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("skipped question loses its stored answer", func(t *testing.T) {
		f := newFixture(t)
		survey := fixtureSurvey()
		prior := &models.Response{QuestionID: 3, RespondentUUID: "r1", AnswerRaw: datatypes.JSON(`"Sea Star"`), Question: &survey.Questions[2]}

		f.repo.respondent.On("GetByUUID", mock.Anything, mock.Anything, "r1").Return(&models.Respondent{UUID: "r1", SurveyID: 7}, nil)
		f.repo.response.On("GetByRespondent", mock.Anything, mock.Anything, "r1").Return([]*models.Response{prior}, nil)
		f.repo.response.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.Response) bool {
			return r.QuestionID == 2 && r.AnswerNumber != nil && r.AnswerNumber.Equal(decimal.NewFromInt(2))
		})).Return(nil)
		f.repo.response.On("DeleteByQuestions", mock.Anything, mock.Anything, "r1", []uint{3}).Return(nil)
		f.expectRefresh("r1")
		f.repo.respondent.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.Respondent) bool {
			return r.LastQuestion != nil && *r.LastQuestion == "boats" && !r.Complete
		})).Return(nil)

		res, err := f.responses.SubmitAnswer(ctx, "catch-report", "r1", "boats", &models.SubmitAnswerRequest{Answer: json.RawMessage(`2`)})
		require.NoError(t, err)
		assert.True(t, res.Accepted)
		assert.False(t, res.Complete)
		assert.Equal(t, "consent", res.Next)
		assert.Equal(t, []string{"boat-names"}, res.Discarded)

		f.repo.response.AssertExpectations(t)
		f.repo.respondent.AssertExpectations(t)

		published := f.publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventAnswerRecorded, published[0].Type)
	})

	t.Run("terminate condition finishes the respondent", func(t *testing.T) {
		f := newFixture(t)
		f.repo.respondent.On("GetByUUID", mock.Anything, mock.Anything, "r2").Return(&models.Respondent{UUID: "r2", SurveyID: 7}, nil)
		f.repo.response.On("GetByRespondent", mock.Anything, mock.Anything, "r2").Return([]*models.Response{}, nil)
		f.repo.response.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.expectRefresh("r2")
		f.repo.respondent.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.Respondent) bool {
			return r.Complete && r.Status != nil && *r.Status == models.RespondentTerminate
		})).Return(nil)

		res, err := f.responses.SubmitAnswer(ctx, "catch-report", "r2", "consent",
			&models.SubmitAnswerRequest{Answer: json.RawMessage(`{"text":"No","label":"no"}`)})
		require.NoError(t, err)
		assert.True(t, res.Complete)
		assert.Equal(t, "terminate", res.Status)
		assert.Empty(t, res.Next)

		published := f.publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventRespondentTerminated, published[1].Type)
	})

	t.Run("last question completes the survey", func(t *testing.T) {
		f := newFixture(t)
		f.repo.respondent.On("GetByUUID", mock.Anything, mock.Anything, "r3").Return(nil, gorm.ErrRecordNotFound)
		f.repo.respondent.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.repo.response.On("GetByRespondent", mock.Anything, mock.Anything, "r3").Return([]*models.Response{}, nil)
		f.repo.response.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.expectRefresh("r3")
		f.repo.respondent.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		res, err := f.responses.SubmitAnswer(ctx, "catch-report", "r3", "consent",
			&models.SubmitAnswerRequest{Answer: json.RawMessage(`{"text":"Yes","label":"yes"}`)})
		require.NoError(t, err)
		assert.True(t, res.Complete)
		assert.Equal(t, "complete", res.Status)

		var types []events.EventType
		for _, e := range f.publisher.GetPublishedEvents() {
			types = append(types, e.Type)
		}
		assert.Equal(t, []events.EventType{events.EventRespondentCreated, events.EventAnswerRecorded, events.EventRespondentCompleted}, types)
	})

	t.Run("rejected answer stores nothing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.responses.SubmitAnswer(ctx, "catch-report", "r4", "boats", &models.SubmitAnswerRequest{Answer: json.RawMessage(`"lots"`)})
		assert.ErrorIs(t, err, ErrAnswerNotAccepted)
		assert.True(t, IsNotAccepted(err))
		f.repo.response.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown question", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.responses.SubmitAnswer(ctx, "catch-report", "r5", "nope", &models.SubmitAnswerRequest{Answer: json.RawMessage(`1`)})
		assert.True(t, IsNotFound(err))
	})

	t.Run("respondent of another survey", func(t *testing.T) {
		f := newFixture(t)
		f.repo.respondent.On("GetByUUID", mock.Anything, mock.Anything, "r6").Return(&models.Respondent{UUID: "r6", SurveyID: 99}, nil)
		_, err := f.responses.SubmitAnswer(ctx, "catch-report", "r6", "boats", &models.SubmitAnswerRequest{Answer: json.RawMessage(`1`)})
		assert.True(t, IsConflict(err))
	})
}

func TestResponseService_Sync(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	f.repo.respondent.On("GetByUUID", mock.Anything, mock.Anything, "tablet:9").Return(nil, gorm.ErrRecordNotFound)
	f.repo.respondent.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		r := args.Get(2).(*models.Respondent)
		r.UUID = models.NormalizeUUID(r.UUID)
	})
	f.repo.response.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.response.On("DeleteByQuestions", mock.Anything, mock.Anything, "tablet_9", []uint{3}).Return(nil)
	f.expectRefresh("tablet_9")
	f.repo.respondent.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(r *models.Respondent) bool {
		return r.Complete && r.TS.Equal(ts) && *r.LastQuestion == "consent"
	})).Return(nil)

	req := &models.SyncRequest{
		Respondent: models.SyncRespondent{UUID: "tablet:9", TS: ts, Complete: true, Status: "complete"},
		Responses: []models.StoredResponse{
			{Question: "intro", Answer: json.RawMessage(`null`), TS: ts},
			{Question: "boats", Answer: json.RawMessage(`2`), TS: ts},
			{Question: "boat-names", Answer: json.RawMessage(`"Sea Star"`), TS: ts},
			{Question: "consent", Answer: json.RawMessage(`{"text":"Yes","label":"yes"}`), TS: ts},
			{Question: "retired-question", Answer: json.RawMessage(`"x"`), TS: ts},
		},
	}
	res, err := f.responses.Sync(context.Background(), "catch-report", req)
	require.NoError(t, err)
	assert.Equal(t, "tablet_9", res.UUID)
	assert.Equal(t, 4, res.Saved)
	assert.Equal(t, 1, res.Rejected)
	assert.True(t, res.Complete)
	f.repo.response.AssertExpectations(t)
}
