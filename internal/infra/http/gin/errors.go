package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/access"
	authsvc "leasehub/internal/app/services/auth"
	domainauth "leasehub/internal/domain/auth"
	"leasehub/internal/domain/shared/errs"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeValidationFailed   = "validation_failed"
	codeUnauthenticated    = "unauthenticated"
	codeBadCredentials     = "invalid_credentials"
	codeForbidden          = "forbidden"
	codeNotFound           = "not_found"
	codeNotAvailable       = "listing_not_available"
	codeDuplicatePending   = "duplicate_pending_booking"
	codeInvalidTransition  = "invalid_transition"
	codeConcurrentUpdate   = "concurrent_update"
	codeConflict           = "conflict"
	codeStorageUnavailable = "storage_unavailable"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

// respondError maps an error kind onto a status and a stable code. Storage
// and unclassified failures hide their message from the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
		}
		msg = http.StatusText(status)
	}
	writeError(c, status, code, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, codeBadCredentials
	case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, domainauth.ErrSessionNotFound):
		return http.StatusUnauthorized, codeUnauthenticated
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, codeValidationFailed
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, errs.ErrNotAvailable):
		return http.StatusConflict, codeNotAvailable
	case errors.Is(err, errs.ErrDuplicatePending):
		return http.StatusConflict, codeDuplicatePending
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusConflict, codeInvalidTransition
	case errors.Is(err, errs.ErrConcurrentUpdate):
		return http.StatusConflict, codeConcurrentUpdate
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, errs.ErrStorage):
		return http.StatusServiceUnavailable, codeStorageUnavailable
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}
