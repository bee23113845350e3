package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

// ErrAnswerNotAccepted means the flow must not advance past the question.
var ErrAnswerNotAccepted = errors.New("answer not accepted")

// MaxPennies is the allocation budget of a pennies question.
const MaxPennies = 100

// AnswerValidator checks a parsed answer against its question before it is
// recorded.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAnswerNotAccepted, fmt.Sprintf(format, args...))
}

// Accept returns nil when the answer may be recorded, or an error wrapping
// ErrAnswerNotAccepted.
func (v *AnswerValidator) Accept(q *models.Question, a models.Answer) error {
	if q.Type == models.QuestionInfo {
		return nil
	}
	if a.IsEmpty() {
		if q.Required {
			return reject("%s is required", q.Slug)
		}
		return nil
	}

	switch {
	case q.Type == models.QuestionInteger:
		return v.acceptNumber(q, a, true)
	case q.Type.IsNumeric():
		return v.acceptNumber(q, a, false)
	case q.Type == models.QuestionDatePicker:
		if _, err := time.Parse(models.DateLayout, strings.TrimSpace(a.Scalar)); err != nil {
			return reject("%s must be a date like 01/31/2014", q.Slug)
		}
	case q.Type.IsSingleChoice():
		if a.Kind == models.AnswerOption && a.Option.Text == "" {
			return reject("%s: choose an option", q.Slug)
		}
	case q.Type == models.QuestionMultiSelect:
		if a.Kind != models.AnswerOptionList {
			return reject("%s expects a list of options", q.Slug)
		}
	case q.Type == models.QuestionGrid:
		return v.acceptGrid(q, a)
	case q.Type == models.QuestionPennies:
		if a.Kind != models.AnswerLocations {
			return reject("%s expects a list of locations", q.Slug)
		}
		for i, p := range a.Locations {
			if p.Pennies != nil && *p.Pennies < 0 {
				return reject("%s location %d allocates a negative amount", q.Slug, i+1)
			}
		}
		if total := a.PenniesTotal(); total > MaxPennies {
			return reject("%s allocates %.0f of %d", q.Slug, total, MaxPennies)
		}
	case q.Type == models.QuestionMapMultipoint:
		if a.Kind != models.AnswerLocations {
			return reject("%s expects a list of locations", q.Slug)
		}
		for i, p := range a.Locations {
			if len(p.Answers.Activities) == 0 {
				return reject("%s location %d has no activity", q.Slug, i+1)
			}
		}
	}
	return nil
}

func numberOf(a models.Answer) (decimal.Decimal, bool) {
	if a.Number != nil {
		return *a.Number, true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(a.Scalar))
	return d, err == nil
}

func (v *AnswerValidator) acceptNumber(q *models.Question, a models.Answer, whole bool) error {
	n, ok := numberOf(a)
	if !ok {
		return reject("%s must be a number", q.Slug)
	}
	if whole && !n.IsInteger() {
		return reject("%s must be a whole number", q.Slug)
	}
	if q.IntegerMin != nil && n.LessThan(decimal.NewFromInt(int64(*q.IntegerMin))) {
		return reject("%s must be at least %d", q.Slug, *q.IntegerMin)
	}
	if q.IntegerMax != nil && n.GreaterThan(decimal.NewFromInt(int64(*q.IntegerMax))) {
		return reject("%s must be at most %d", q.Slug, *q.IntegerMax)
	}
	return nil
}

func (v *AnswerValidator) acceptGrid(q *models.Question, a models.Answer) error {
	if a.Kind != models.AnswerGrid {
		return reject("%s expects grid rows", q.Slug)
	}
	for _, row := range a.Grid {
		for _, col := range q.GridCols {
			key := col.ColumnKey()
			if col.Type == models.QuestionMultiSelect {
				if col.Required && len(row.ColumnList(key)) == 0 {
					return reject("%s row %q is missing %s", q.Slug, row.Text, col.Text)
				}
				continue
			}
			value, ok := row.Column(key)
			if !ok {
				if col.Required {
					return reject("%s row %q is missing %s", q.Slug, row.Text, col.Text)
				}
				continue
			}
			if !col.Type.IsNumeric() {
				continue
			}
			n, err := decimal.NewFromString(value)
			if err != nil {
				return reject("%s row %q: %s must be a number", q.Slug, row.Text, col.Text)
			}
			if col.Min != nil && n.LessThan(decimal.NewFromInt(int64(*col.Min))) {
				return reject("%s row %q: %s below %d", q.Slug, row.Text, col.Text, *col.Min)
			}
			if col.Max != nil && n.GreaterThan(decimal.NewFromInt(int64(*col.Max))) {
				return reject("%s row %q: %s above %d", q.Slug, row.Text, col.Text, *col.Max)
			}
		}
	}
	return nil
}
