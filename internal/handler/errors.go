package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rbac-backend/internal/service"
	"rbac-backend/pkg/response"
)

const invalidDataMessage = "The given data was invalid."

// writeError maps service errors onto HTTP statuses. Anything unknown is
// logged and hidden behind a 500.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			response.Validation(http.StatusUnprocessableEntity, invalidDataMessage, verr.Fields))
	case errors.Is(err, service.ErrInvalidCredentials):
		msg := "These credentials do not match our records."
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			response.Validation(http.StatusUnprocessableEntity, msg, map[string][]string{"email": {msg}}))
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found."))
	case errors.Is(err, service.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthenticated."))
	case errors.Is(err, service.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "This action is unauthorized."))
	default:
		logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// bindJSON decodes and validates the body, answering 422 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			response.Validation(http.StatusUnprocessableEntity, invalidDataMessage, response.FieldErrors(err)))
		return false
	}
	return true
}

// pathID parses the :id parameter. Malformed ids cannot name a record, so they are 404.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found."))
		return uuid.Nil, false
	}
	return id, true
}
