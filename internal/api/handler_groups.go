package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"groups-service/internal/domain"
)

type listGroupsResponse struct {
	Groups []domain.Group `json:"groups"`
	Role   string         `json:"role"`
}

type createGroupRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participantes"`
}

type createGroupResponse struct {
	Group *domain.Group `json:"group"`
}

type addParticipantRequest struct {
	ParticipantID string `json:"participantId"`
}

// HandleListGroups returns every group the caller participates in or created.
// An empty result is a successful 200 with an empty groups array.
func (h *Handler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	groups, err := h.groups.ListVisible(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listGroupsResponse{Groups: groups, Role: p.Role})
}

// HandleCreateGroup creates a group owned by the caller.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}

	g, err := h.groups.Create(r.Context(), p, req.Name, req.Participants)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGroupResponse{Group: g})
}

// HandleAddParticipant adds a user to a group's participant set.
// Adding an id that is already a participant succeeds without effect.
func (h *Handler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	var req addParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.groups.AddParticipant(r.Context(), groupID, req.ParticipantID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "participant added")
}
