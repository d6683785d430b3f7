// Package handlers provides the HTTP handlers of the widget API.
//
// This file defines the response helpers shared by every endpoint. Errors use
// one envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "error": "Tenant unknown-id not found",
//	  "code": "not_found",
//	  "requestId": "123e4567-e89b-12d3-a456-426614174000"
//	}
//
// `error` always holds the human message; `details` lists individual
// validation problems when there are any.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatguus/chatguus-backend/internal/http/middleware"
	"github.com/chatguus/chatguus-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Human-readable message, safe to show to visitors
	Error string `json:"error" example:"Tenant unknown-id not found"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Individual validation problems
	Details []string `json:"details,omitempty"`
	// Correlates server logs and client errors
	RequestID string `json:"requestId,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string, details ...string) {
	resp := ErrorResponse{
		Error:     msg,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto the envelope. Unknown errors become a
// generic 500; their text is logged, never returned.
func failErr(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Message, ve.Problems...)
		return
	}
	var nf *services.NotFoundError
	switch {
	case errors.As(err, &nf):
		fail(c, http.StatusNotFound, ErrCodeNotFound, nf.Message)
	case errors.Is(err, services.ErrTenantNotFound), errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Not found")
	case errors.Is(err, services.ErrTenantExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "Tenant already exists")
	case errors.Is(err, services.ErrDefaultTenantProtected):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "Cannot delete default tenant")
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
