package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

func TestImportExportService_ImportPlaces(t *testing.T) {
	repo := newMockRepository()
	svc := NewImportExportService(repo, nil, nil, testLogger(), validator.New())

	repo.place.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *models.Place) bool {
		return p.Name == "Cannon Beach" && p.Lat.Equal(decimal.RequireFromString("45.8917"))
	})).Return(true, nil).Once()
	repo.place.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()

	data := strings.Join([]string{
		"FEATURE_ID|FEATURE_NAME|FEATURE_CLASS|STATE_ALPHA|COUNTY_NAME|PRIM_LAT_DEC|PRIM_LONG_DEC",
		"1|Cannon Beach|Populated Place|OR|Clatsop|45.8917|-123.9615",
		"2|Astoria Airport|Airport|OR|Clatsop|46.15|-123.88",
		"3|Seaside|Populated Place|OR|Clatsop|north|-123.92",
		"4|Cannon Beach|Populated Place|OR|Clatsop|45.8917|-123.9615",
	}, "\n")

	summary, err := svc.ImportPlaces(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 2, summary.SkippedCount)
	assert.Equal(t, 1, summary.ErrorCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "PRIM_LAT_DEC", summary.Errors[0].Column)
	repo.place.AssertNumberOfCalls(t, "Upsert", 2)

	_, err = svc.ImportPlaces(context.Background(), strings.NewReader("NAME|STATE\nx|OR\n"))
	assert.ErrorIs(t, err, ErrImportFormat)
	assert.True(t, IsValidation(err))
}

func TestImportExportService_ExportRespondents(t *testing.T) {
	survey := &models.Survey{ID: 3, Slug: "market", Questions: []models.Question{
		{ID: 10, Slug: "boats", Label: "Boats", Type: models.QuestionInteger},
		{ID: 11, Slug: "catch", Label: "Catch", Type: models.QuestionGrid, Rows: strPtr("Salmon\nTuna")},
	}}
	repo := newMockRepository()
	repo.survey.On("GetBySlugWithDefinition", mock.Anything, mock.Anything, "market").Return(survey, nil)
	repo.survey.On("GridRowLabels", mock.Anything, mock.Anything, uint(3)).Return([]models.GridRowLabel{}, nil)

	two := decimal.NewFromInt(2)
	respondent := &models.Respondent{
		UUID:         "r1",
		Surveyor:     strPtr("kim"),
		ReviewStatus: models.ReviewFlagged,
		TS:           time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Responses: []models.Response{
			{Question: &survey.Questions[0], AnswerRaw: datatypes.JSON(`2`), AnswerNumber: &two},
			{Question: &survey.Questions[1], AnswerRaw: datatypes.JSON(`[]`), GridAnswers: []models.GridAnswer{
				{RowLabel: strPtr("salmon"), AnswerText: strPtr("3")},
			}},
		},
	}
	filters := repositories.RespondentFilters{SurveySlug: "market"}
	repo.respondent.On("ListForExport", mock.Anything, mock.Anything, filters).Return([]*models.Respondent{respondent}, nil)

	surveys := NewSurveyService(repo, nil, nil, testLogger(), validator.New(), time.Minute)
	svc := NewImportExportService(repo, surveys, nil, testLogger(), validator.New())

	data, err := svc.ExportRespondents(context.Background(), filters)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Responses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Surveyor", "Date of survey", "Email", "Complete", "Review Status", "Boats", "Catch - Salmon", "Catch - Tuna"}, rows[0])
	assert.Equal(t, "kim", rows[1][0])
	assert.Equal(t, "False", rows[1][3])
	assert.Equal(t, "Flagged", rows[1][4])
	assert.Equal(t, "2", rows[1][5])
	assert.Equal(t, "3", rows[1][6])
}
