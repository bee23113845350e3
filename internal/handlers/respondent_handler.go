package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

type RespondentHandler struct {
	BaseHandler
	respondentService services.RespondentService
}

func NewRespondentHandler(respondentService services.RespondentService, logger utils.Logger) *RespondentHandler {
	return &RespondentHandler{
		BaseHandler:       NewBaseHandler(logger),
		respondentService: respondentService,
	}
}

// ListRespondents lists respondents of a survey.
// Query: start_date, end_date (YYYY-MM-DD), market, surveyor, status, limit, offset.
// @Router /surveys/{slug}/respondents [get]
func (h *RespondentHandler) ListRespondents(c *gin.Context) {
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
	filters.Limit = parseIntQuery(c, "limit", 50)
	filters.Offset = parseIntQuery(c, "offset", 0)

	respondents, total, err := h.respondentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: respondents, Total: total, Limit: filters.Limit, Offset: filters.Offset})
}

// GetRespondent returns a respondent with its responses
// @Router /respondents/{uuid} [get]
func (h *RespondentHandler) GetRespondent(c *gin.Context) {
	id := ParseStringIDParam(c, "uuid")
	if id == "" {
		return
	}

	respondent, err := h.respondentService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, respondent)
}

// UpdateReview sets the review status and comment of a respondent
// @Router /respondents/{uuid}/review [put]
func (h *RespondentHandler) UpdateReview(c *gin.Context) {
	id := ParseStringIDParam(c, "uuid")
	if id == "" {
		return
	}

	var req models.ReviewUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	h.LogRequest(c, "Reviewing respondent", "respondent", id, "review_status", req.ReviewStatus)

	respondent, err := h.respondentService.UpdateReview(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, respondent)
}
