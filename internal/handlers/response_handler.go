package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

// ResponseHandler serves respondent sessions: start, resume, answer, sync
type ResponseHandler struct {
	BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(responseService services.ResponseService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     NewBaseHandler(logger),
		responseService: responseService,
	}
}

// StartRespondent opens a new session
// @Router /surveys/{slug}/respondents [post]
func (h *ResponseHandler) StartRespondent(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	var req models.CreateRespondentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
			return
		}
	}

	session, err := h.responseService.StartRespondent(c.Request.Context(), slug, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Respondent started", "slug", slug, "respondent", session.Respondent.UUID)
	c.JSON(http.StatusCreated, session)
}

// GetSession returns the definition plus prior responses for a respondent
// @Router /surveys/{slug}/respondents/{uuid} [get]
func (h *ResponseHandler) GetSession(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}
	id := ParseStringIDParam(c, "uuid")
	if id == "" {
		return
	}

	session, err := h.responseService.GetSession(c.Request.Context(), slug, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SubmitAnswer records one answer and reports where the flow goes next
// @Router /surveys/{slug}/respondents/{uuid}/answers/{question} [post]
func (h *ResponseHandler) SubmitAnswer(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}
	id := ParseStringIDParam(c, "uuid")
	if id == "" {
		return
	}
	question := ParseStringIDParam(c, "question")
	if question == "" {
		return
	}

	var req models.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.responseService.SubmitAnswer(c.Request.Context(), slug, id, question, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Sync uploads a session recorded offline
// @Router /surveys/{slug}/respondents/{uuid}/sync [post]
func (h *ResponseHandler) Sync(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}
	id := ParseStringIDParam(c, "uuid")
	if id == "" {
		return
	}

	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}
	if req.Respondent.UUID == "" {
		req.Respondent.UUID = id
	}
	if models.NormalizeUUID(req.Respondent.UUID) != models.NormalizeUUID(id) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Respondent mismatch", Details: "body uuid differs from path"})
		return
	}

	h.LogRequest(c, "Syncing offline respondent", "slug", slug, "respondent", id, "responses", len(req.Responses))

	result, err := h.responseService.Sync(c.Request.Context(), slug, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
