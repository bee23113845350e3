package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam returns the trimmed path parameter, answering 400 and
// returning "" when it is empty.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: param + " cannot be empty",
		})
		return ""
	}
	return idStr
}
