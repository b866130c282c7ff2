// internal/api/handlers/respond.go
package handlers

import (
	"context"
	"log"

	"recycle-pickup-api-server/internal/api/middleware"
	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// CallerSource resolves the stored profile behind an authenticated user id.
type CallerSource interface {
	Caller(ctx context.Context, userID string) (models.Caller, error)
}

func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal || code == apperr.CodeUnavailable {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(apperr.HTTPStatus(code), gin.H{"error": apperr.MessageOf(err)})
}

// currentCaller loads the caller of an authenticated request. On failure it
// has already written the response.
func currentCaller(c *gin.Context, callers CallerSource) (models.Caller, bool) {
	caller, err := callers.Caller(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return models.Caller{}, false
	}
	return caller, true
}
