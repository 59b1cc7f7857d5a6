package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studygenie/internal/ai"
	"studygenie/internal/app"
	"studygenie/internal/ingest"
	"studygenie/internal/session"
	"studygenie/internal/transport/http/middleware"
	"studygenie/internal/transport/http/response"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

// optionalUserID is zero for anonymous callers.
func optionalUserID(c *gin.Context) uint {
	id, _ := getUserIDFromContext(c)
	return id
}

func invalidPayload(c *gin.Context) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
}

// respondError maps service errors onto the envelope. failMsg is used for
// anything that is not a caller mistake.
func respondError(c *gin.Context, err error, failMsg string) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedType):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedType, err.Error())
	case errors.Is(err, ingest.ErrEmptySource):
		response.Error(c, http.StatusBadRequest, response.CodeEmptySource, ingest.ErrEmptySource.Error())
	case errors.Is(err, ingest.ErrSourceFetch):
		response.Error(c, http.StatusBadRequest, response.CodeSourceFetch, err.Error())
	case errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeMessageEmpty, err.Error())
	case errors.Is(err, ingest.ErrInvalidInput),
		errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidID),
		errors.Is(err, ai.ErrEmptyInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, ai.ErrMalformedGeneration):
		response.Error(c, http.StatusInternalServerError, response.CodeMalformedGeneration, "failed to parse generated content")
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusGatewayTimeout, response.CodeUnavailable, "request timed out")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, failMsg)
	}
}
