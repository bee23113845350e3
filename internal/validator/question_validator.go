package validator

import (
	"fmt"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

// QuestionValidator handles question definition validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateSurvey validates every question of a survey definition
func (v *QuestionValidator) ValidateSurvey(survey *models.Survey) error {
	if len(survey.Questions) == 0 {
		return fmt.Errorf("survey %s has no questions", survey.Slug)
	}
	for i := range survey.Questions {
		if err := v.ValidateQuestion(&survey.Questions[i]); err != nil {
			return fmt.Errorf("validation failed for question %d (%s): %w", i+1, survey.Questions[i].Slug, err)
		}
	}
	return nil
}

// ValidateQuestion checks the fields each question type depends on
func (v *QuestionValidator) ValidateQuestion(q *models.Question) error {
	if q.Slug == "" {
		return fmt.Errorf("question slug is required")
	}

	switch q.Type {
	case models.QuestionSingleSelect, models.QuestionMultiSelect:
		return v.validateSelect(q)
	case models.QuestionGrid:
		return v.validateGrid(q)
	case models.QuestionInteger, models.QuestionNumber, models.QuestionCurrency:
		return v.validateNumeric(q)
	case models.QuestionMapMultipoint, models.QuestionPennies:
		return v.validateMap(q)
	}
	return nil
}

func (v *QuestionValidator) validateSelect(q *models.Question) error {
	hasOptions := len(q.RowList()) > 0 ||
		(q.OptionsJSON != nil && *q.OptionsJSON != "") ||
		(q.OptionsFromPreviousAnswer != nil && *q.OptionsFromPreviousAnswer != "")
	if !hasOptions {
		return fmt.Errorf("select question needs rows, options_json or options_from_previous_answer")
	}
	return nil
}

func (v *QuestionValidator) validateGrid(q *models.Question) error {
	if len(q.GridCols) == 0 {
		return fmt.Errorf("grid question needs at least one column")
	}
	seen := make(map[string]bool, len(q.GridCols))
	for _, col := range q.GridCols {
		if col.Label == "" {
			return fmt.Errorf("grid column label cannot be empty")
		}
		if seen[col.ColumnKey()] {
			return fmt.Errorf("duplicate grid column %q", col.Label)
		}
		seen[col.ColumnKey()] = true
		if col.Min != nil && col.Max != nil && *col.Min > *col.Max {
			return fmt.Errorf("grid column %q minimum cannot be greater than maximum", col.Label)
		}
	}
	return nil
}

func (v *QuestionValidator) validateNumeric(q *models.Question) error {
	if q.IntegerMin != nil && q.IntegerMax != nil && *q.IntegerMin > *q.IntegerMax {
		return fmt.Errorf("integer_min cannot be greater than integer_max")
	}
	return nil
}

func (v *QuestionValidator) validateMap(q *models.Question) error {
	if (q.Lat == nil) != (q.Lng == nil) {
		return fmt.Errorf("map question needs both lat and lng")
	}
	if q.Zoom != nil && *q.Zoom < 0 {
		return fmt.Errorf("zoom cannot be negative")
	}
	if q.MinZoom != nil && *q.MinZoom < 0 {
		return fmt.Errorf("min_zoom cannot be negative")
	}
	return nil
}
