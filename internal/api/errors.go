package api

import (
	"errors"
	"net/http"

	"groups-service/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// Wrapped infrastructure errors fall through to 500.
func httpStatusFromDomainError(err error) int {
	var unauthenticated *domain.UnauthenticatedError
	var accessDenied *domain.AccessDeniedError
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &unauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
