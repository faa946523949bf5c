package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/middleware"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
	"github.com/bartek717/passionproject/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// handleError maps service errors onto HTTP statuses. Internal detail
// stays in the log; the client only sees a category.
func handleError(c *gin.Context, err error) {
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("path", c.FullPath()), zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		response.Error(c, http.StatusBadRequest, "unsupported file format")
	case errors.Is(err, appErr.ErrExtractionFailed):
		response.Error(c, http.StatusBadRequest, "could not extract text from file")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "duplicate document")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too many requests")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
