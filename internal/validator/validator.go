package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
	answerValidator   *AnswerValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
		answerValidator:   NewAnswerValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and, for survey definitions, the
// per-type question rules.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}
	if survey, ok := s.(*models.Survey); ok {
		return v.questionValidator.ValidateSurvey(survey)
	}
	return nil
}

// Question returns the question definition validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// Answer returns the answer validator
func (v *Validator) Answer() *AnswerValidator {
	return v.answerValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("condition", validateCondition)
	validate.RegisterValidation("review_status", validateReviewStatus)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, validType := range models.QuestionTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateCondition(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if len(value) < 2 {
		return false
	}
	return strings.ContainsRune("<>=!", rune(value[0]))
}

func validateReviewStatus(fl validator.FieldLevel) bool {
	switch models.ReviewStatus(fl.Field().String()) {
	case models.ReviewNeeded, models.ReviewFlagged, models.ReviewAccepted:
		return true
	}
	return false
}
