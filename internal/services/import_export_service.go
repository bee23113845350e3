package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/survey-service/internal/cache"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// ImportExportService handles the respondent spreadsheet export and the
// places gazetteer import
type ImportExportService interface {
	ExportRespondents(ctx context.Context, filters repositories.RespondentFilters) ([]byte, error)
	ImportPlaces(ctx context.Context, reader io.Reader) (*models.ImportSummary, error)
}

type importExportService struct {
	repo      repositories.Repository
	surveys   SurveyService
	cache     cache.CacheService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, surveys SurveyService, cacheService cache.CacheService, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		surveys:   surveys,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// ===== EXPORT OPERATIONS =====

const exportSheet = "Responses"

// ExportRespondents writes one row per respondent. Columns are the
// respondent fields followed by one column per question; grid questions
// expand to one column per row.
func (s *importExportService) ExportRespondents(ctx context.Context, filters repositories.RespondentFilters) ([]byte, error) {
	survey, err := s.surveys.GetDefinition(ctx, filters.SurveySlug)
	if err != nil {
		return nil, err
	}

	seen, err := s.repo.Survey().GridRowLabels(ctx, nil, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid rows: %w", err)
	}
	fields := append(append([]models.FieldName{}, models.RespondentFieldNames...), survey.GenerateFieldNames(seen)...)

	respondents, err := s.repo.Respondent().ListForExport(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load respondents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	// Write headers
	headers := make([]interface{}, len(fields))
	for i, field := range fields {
		headers[i] = field.Label
	}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	// Write data
	for i, respondent := range respondents {
		flat := respondent.FlatRow()
		row := make([]interface{}, len(fields))
		for j, field := range fields {
			row[j] = flat[field.Slug]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Respondent export completed", "survey", survey.Slug, "rows", len(respondents), "columns", len(fields))
	return buf.Bytes(), nil
}

// ===== IMPORT OPERATIONS =====

// ExcludedPlaceTypes are gazetteer feature classes that are never imported.
var ExcludedPlaceTypes = map[string]bool{
	"Airport": true, "Building": true, "Cemetery": true, "Crossing": true,
	"Locale": true, "Census": true, "Church": true, "Civil": true,
	"Hospital": true, "Summit": true, "Tower": true, "Military": true,
	"Mine": true, "School": true, "Post Office": true, "Tunnel": true,
	"Well": true,
}

var placeColumns = []string{"FEATURE_CLASS", "FEATURE_NAME", "STATE_ALPHA", "COUNTY_NAME", "PRIM_LAT_DEC", "PRIM_LONG_DEC"}

// ImportPlaces reads a pipe-delimited gazetteer file with a header row.
// Rows in an excluded feature class are skipped; others are upserted on
// type, name, state and county.
func (s *importExportService) ImportPlaces(ctx context.Context, reader io.Reader) (*models.ImportSummary, error) {
	start := time.Now()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = '|'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range placeColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrImportFormat, col)
		}
	}

	summary := &models.ImportSummary{}
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		row := 1
		for {
			record, err := csvReader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			row++
			summary.TotalRows++
			if err != nil {
				summary.ErrorCount++
				summary.Errors = append(summary.Errors, models.ImportValidationError{Row: row, Message: err.Error(), Code: "malformed_row"})
				continue
			}

			place, rowErr := parsePlaceRow(record, headerMap, row)
			summary.ProcessedRows++
			if rowErr != nil {
				summary.ErrorCount++
				summary.Errors = append(summary.Errors, *rowErr)
				continue
			}
			if ExcludedPlaceTypes[place.Type] {
				summary.SkippedCount++
				continue
			}

			created, err := s.repo.Place().Upsert(ctx, tx, place)
			if err != nil {
				return err
			}
			if created {
				summary.SuccessCount++
			} else {
				summary.SkippedCount++
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import places: %w", err)
	}

	if s.cache != nil && summary.SuccessCount > 0 {
		if err := s.cache.DeletePattern(ctx, "places:*"); err != nil {
			s.logger.Warn("Failed to invalidate places cache", "error", err)
		}
	}

	summary.ProcessingTime = time.Since(start)
	s.logger.Info("Places import completed",
		"total_rows", summary.TotalRows,
		"created", summary.SuccessCount,
		"skipped", summary.SkippedCount,
		"error_count", summary.ErrorCount)
	return summary, nil
}

func parsePlaceRow(record []string, headerMap map[string]int, row int) (*models.Place, *models.ImportValidationError) {
	field := func(col string) string {
		i := headerMap[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	place := &models.Place{
		Type:   field("FEATURE_CLASS"),
		Name:   field("FEATURE_NAME"),
		State:  field("STATE_ALPHA"),
		County: field("COUNTY_NAME"),
	}
	if place.Type == "" || place.Name == "" {
		return nil, &models.ImportValidationError{Row: row, Column: "FEATURE_NAME", Message: "feature class and name are required", Code: "missing_field"}
	}

	var err error
	if place.Lat, err = decimal.NewFromString(field("PRIM_LAT_DEC")); err != nil {
		return nil, &models.ImportValidationError{Row: row, Column: "PRIM_LAT_DEC", Message: "invalid latitude", Value: field("PRIM_LAT_DEC"), Code: "invalid_coordinate"}
	}
	if place.Lng, err = decimal.NewFromString(field("PRIM_LONG_DEC")); err != nil {
		return nil, &models.ImportValidationError{Row: row, Column: "PRIM_LONG_DEC", Message: "invalid longitude", Value: field("PRIM_LONG_DEC"), Code: "invalid_coordinate"}
	}
	return place, nil
}
