// Package api provides the HTTP handlers for the groups service REST API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"groups-service/internal/domain"
	"groups-service/internal/middleware"
	"groups-service/internal/service"
)

// Handler holds the HTTP handlers for the groups API.
type Handler struct {
	groups *service.GroupService
	logger *slog.Logger
}

// NewHandler creates a Handler over the group service.
func NewHandler(groups *service.GroupService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{groups: groups, logger: logger}
}

// HandleHealth responds with the service banner. No auth required.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Groups service running!")
}

// principal returns the authenticated principal from the request context.
// Requests reach handlers only through the auth middleware, so a missing
// principal means the route was wired without it.
func (h *Handler) principal(r *http.Request) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated("authentication required")
	}
	return p, nil
}

// writeError maps a failure to its HTTP status. Internal errors get a generic
// message; the detail is logged for operators instead of leaking to clients.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
		h.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
	}
	writeMessage(w, status, message)
}
