package api

import (
	"github.com/go-chi/chi/v5"

	"groups-service/internal/domain"
	"groups-service/internal/middleware"
)

// Router builds the route table: the public health endpoint, read routes open
// to every authenticated role, and admin-only mutation routes. Each route
// group supplies its own role allow-list to the authorizer.
func Router(h *Handler, authorizer *middleware.Authorizer) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(authorizer.RequireRoles(domain.RoleAdmin, domain.RoleMortal))
		r.Get("/groups", h.HandleListGroups)
	})

	r.Group(func(r chi.Router) {
		r.Use(authorizer.RequireRoles(domain.RoleAdmin))
		r.Post("/createGroup", h.HandleCreateGroup)
		r.Post("/groups/{groupID}/addParticipant", h.HandleAddParticipant)
	})

	return r
}
