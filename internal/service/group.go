// Package service implements the application services of the groups service.
package service

import (
	"context"
	"time"

	"groups-service/internal/domain"
)

// GroupService computes group visibility and performs group mutations.
// Role gating happens at the middleware layer; this service trusts the
// principal it is handed.
type GroupService struct {
	groups domain.GroupRepository
	now    func() time.Time
}

// NewGroupService creates a GroupService over the given repository.
func NewGroupService(groups domain.GroupRepository) *GroupService {
	return &GroupService{groups: groups, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (s *GroupService) WithClock(now func() time.Time) *GroupService {
	s.now = now
	return s
}

// ListVisible returns every group the principal may see: groups it
// participates in followed by groups it created, deduplicated by id.
// A principal with no groups gets an empty (non-nil) slice, not an error.
func (s *GroupService) ListVisible(ctx context.Context, principal domain.Principal) ([]domain.Group, error) {
	byParticipant, err := s.groups.ListByParticipant(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	byCreator, err := s.groups.ListByCreator(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	// Merge order: participant results first, then creator results.
	// A group the principal both created and joined appears exactly once.
	seen := make(map[string]bool, len(byParticipant)+len(byCreator))
	visible := make([]domain.Group, 0, len(byParticipant)+len(byCreator))
	for _, g := range byParticipant {
		if !seen[g.ID] {
			seen[g.ID] = true
			visible = append(visible, g)
		}
	}
	for _, g := range byCreator {
		if !seen[g.ID] {
			seen[g.ID] = true
			visible = append(visible, g)
		}
	}
	return visible, nil
}

// Create persists a new group owned by the principal. The initial participant
// list is deduplicated so the group starts with set semantics, matching what
// AddParticipant maintains afterwards.
func (s *GroupService) Create(ctx context.Context, principal domain.Principal, name string, participants []string) (*domain.Group, error) {
	if name == "" {
		return nil, domain.ErrValidation("group name is required")
	}

	g := &domain.Group{
		Name:         name,
		Participants: dedup(participants),
		CreatedBy:    principal.ID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddParticipant adds participantID to the group's participant set. Adding an
// id that is already present is a no-op that still succeeds, so the call is
// idempotent. The set union is performed by the repository, not read back and
// rewritten here, so concurrent additions to one group all land.
func (s *GroupService) AddParticipant(ctx context.Context, groupID, participantID string) error {
	if participantID == "" {
		return domain.ErrValidation("participant id is required")
	}
	return s.groups.AddParticipant(ctx, groupID, participantID)
}

// dedup returns ids with duplicates removed, first occurrence wins.
func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
