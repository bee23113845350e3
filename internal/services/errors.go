package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/survey-service/internal/errors"
	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Survey specific errors
	ErrSurveyNotFound          = errors.New("survey not found")
	ErrSurveyInvalidDefinition = errors.New("invalid survey definition")
	ErrSurveyMismatch          = errors.New("respondent belongs to another survey")

	// Question specific errors
	ErrQuestionNotFound = errors.New("question not found")

	// Respondent specific errors
	ErrRespondentNotFound = errors.New("respondent not found")

	// Answer errors share the validator sentinel so callers can match either.
	ErrAnswerNotAccepted = validator.ErrAnswerNotAccepted

	// Places errors
	ErrImportFormat = errors.New("unrecognised places file")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSurveyNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrRespondentNotFound) ||
		errors.Is(err, flow.ErrUnknownQuestion)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrSurveyInvalidDefinition) ||
		errors.Is(err, ErrImportFormat) ||
		errors.Is(err, flow.ErrInvalidCondition) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsNotAccepted checks if an answer was rejected by the question's rules
func IsNotAccepted(err error) bool {
	return errors.Is(err, ErrAnswerNotAccepted)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSurveyMismatch)
}
