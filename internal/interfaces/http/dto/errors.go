package dto

import (
	"errors"
	"net/http"

	"github.com/backoffice/backend/internal/domain/shared"
)

// Error codes used across the HTTP interface
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeTenantRequired = "TENANT_REQUIRED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
	ErrCodeTenantRequired: http.StatusBadRequest,
}

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes that indicate a server-side fault rather than a client mistake
// deliberately map to 500 so upstream gateways retry the delivery.
var domainCodeHTTPStatus = map[string]int{
	"NOT_FOUND":              http.StatusNotFound,
	"ALREADY_EXISTS":         http.StatusConflict,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_STATE":          http.StatusConflict,
	"UNAUTHORIZED":           http.StatusUnauthorized,
	"TENANT_REQUIRED":        http.StatusBadRequest,
	"CROSS_TENANT_VIOLATION": http.StatusForbidden,
}

// GetHTTPStatus returns the HTTP status for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// MapDomainError translates a domain error into an HTTP status, error code
// and client-safe message. Unknown errors become opaque 500s so driver and
// storage details never leak to callers.
func MapDomainError(err error) (int, string, string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if status, ok := domainCodeHTTPStatus[domainErr.Code]; ok {
			return status, domainErr.Code, domainErr.Message
		}
		return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
}
