package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/panels"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, apps.ErrUnknownApp),
		errors.Is(err, utils.ErrInvalid),
		errors.Is(err, id.ErrMalformed),
		errors.Is(err, installer.ErrUnknownMethod):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, panels.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, installer.ErrBusy),
		errors.Is(err, installer.ErrNotInstalled),
		errors.Is(err, installer.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, session.ErrLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body
func (h *Handlers) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// bind decodes a bounded JSON body into v
func (h *Handlers) bind(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxBodySize)
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
