package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

type PlacesHandler struct {
	BaseHandler
	placesService services.PlacesService
	importService services.ImportExportService
}

func NewPlacesHandler(placesService services.PlacesService, importService services.ImportExportService, logger utils.Logger) *PlacesHandler {
	return &PlacesHandler{
		BaseHandler:   NewBaseHandler(logger),
		placesService: placesService,
		importService: importService,
	}
}

// SearchPlaces finds places by name prefix (q) and state
// @Router /places [get]
func (h *PlacesHandler) SearchPlaces(c *gin.Context) {
	var filters repositories.PlaceFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid query parameters", Details: err.Error()})
		return
	}
	filters.Limit = parseIntQuery(c, "limit", 20)

	places, err := h.placesService.Search(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}

// ImportPlaces loads a pipe-delimited gazetteer file sent as the "file"
// form field
// @Router /places/import [post]
func (h *PlacesHandler) ImportPlaces(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "File is required", Details: err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot read uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing places", "filename", header.Filename, "size", header.Size)

	summary, err := h.importService.ImportPlaces(c.Request.Context(), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Places imported", Data: summary})
}
