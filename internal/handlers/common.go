package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps a page of results
type ListResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

// LogRequest logs an incoming request with its client details
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{
		"remote_addr", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
	}, additionalFields...)
	h.log(c).Info(message, fields...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.log(c).LogError(err, message, additionalFields...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Warn(message, additionalFields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}
	c.JSON(statusCode, resp)
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case services.IsNotAccepted(err):
		// Clients read the accepted flag to stay on the current question.
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"accepted": false,
			"message":  err.Error(),
		})
	case errors.Is(err, services.ErrSurveyNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Survey not found"})
	case errors.Is(err, services.ErrRespondentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Respondent not found"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found", Details: err.Error()})
	case errors.Is(err, services.ErrSurveyMismatch):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Respondent belongs to another survey"})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Resource conflict", Details: err.Error()})
	case errors.Is(err, services.ErrSurveyInvalidDefinition), errors.Is(err, services.ErrImportFormat), services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Bad request"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
