package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorResponse is the uniform envelope every endpoint returns on failure
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HTTPStatusFromErr maps a marked error to its HTTP status code
func HTTPStatusFromErr(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenConsumed):
		return http.StatusGone
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrVersionConflict), errors.Is(err, ErrInvalidOperation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeFromErr(err error) string {
	for _, ref := range []*InternalError{
		ErrValidation, ErrUnauthorized, ErrPermissionDenied, ErrNotFound,
		ErrTokenNotFound, ErrTokenExpired, ErrTokenConsumed, ErrAlreadyExists,
		ErrVersionConflict, ErrInvalidOperation, ErrHTTPClient, ErrDatabase, ErrSystem,
	} {
		if errors.Is(err, ref) {
			return ref.Code
		}
	}
	return ErrCodeInternalError
}

// NewErrorResponse builds the envelope for err. The hint is preferred over the raw
// message so internal details do not leak, except for upstream provider failures
// where the message is what the admin needs to diagnose.
func NewErrorResponse(err error) ErrorResponse {
	msg := GetHint(err)
	if msg == "" {
		msg = "Une erreur interne est survenue"
		if IsValidation(err) {
			msg = err.Error()
		}
	}
	if IsHTTPClient(err) {
		msg = msg + " : " + err.Error()
	}
	return ErrorResponse{
		Success: false,
		Error:   msg,
		Code:    codeFromErr(err),
		Details: GetReportableDetails(err),
	}
}
