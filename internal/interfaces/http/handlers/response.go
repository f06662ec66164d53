// internal/interfaces/http/handlers/response.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/apperrors"
)

// respondError maps a classified error to an HTTP status and a
// display-safe message. Unclassified errors never leak internals.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindAuthorization:
		status = http.StatusUnauthorized
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindNetwork:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"error": apperrors.UserMessage(err),
	})
}
