package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxDefinitionSize bounds uploaded survey definitions.
const maxDefinitionSize = 4 << 20

type SurveyHandler struct {
	BaseHandler
	surveyService services.SurveyService
	exportService services.ImportExportService
}

func NewSurveyHandler(surveyService services.SurveyService, exportService services.ImportExportService, logger utils.Logger) *SurveyHandler {
	return &SurveyHandler{
		BaseHandler:   NewBaseHandler(logger),
		surveyService: surveyService,
		exportService: exportService,
	}
}

// ListSurveys lists surveys without their questions
// @Router /surveys [get]
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	surveys, err := h.surveyService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, surveys)
}

// GetSurvey returns the full definition of a survey
// @Router /surveys/{slug} [get]
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	survey, err := h.surveyService.GetDefinition(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// LoadSurvey creates or replaces a survey definition. The body is JSON or
// YAML; its slug must match the path or be left out.
// @Router /surveys/{slug} [put]
func (h *SurveyHandler) LoadSurvey(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDefinitionSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}
	survey, err := models.ParseSurveyDefinition(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}
	if survey.Slug == "" {
		survey.Slug = slug
	}
	if survey.Slug != slug {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Slug mismatch",
			Details: fmt.Sprintf("path slug %q, body slug %q", slug, survey.Slug),
		})
		return
	}

	h.LogRequest(c, "Loading survey definition", "slug", slug, "questions", len(survey.Questions))

	stored, err := h.surveyService.LoadDefinition(c.Request.Context(), survey)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// GetSurveyStats returns the dashboard figures of a survey
// @Router /surveys/{slug}/stats [get]
func (h *SurveyHandler) GetSurveyStats(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	stats, err := h.surveyService.GetStats(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportRespondents streams the filtered respondents as an xlsx workbook
// @Router /surveys/{slug}/export [get]
func (h *SurveyHandler) ExportRespondents(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	var filters repositories.RespondentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid query parameters", Details: err.Error()})
		return
	}
	filters.SurveySlug = slug

	h.LogRequest(c, "Exporting respondents", "slug", slug)

	data, err := h.exportService.ExportRespondents(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-responses.xlsx"`, slug))
	c.Data(http.StatusOK, xlsxContentType, data)
}
