package repository

import (
	"context"
	"errors"
	"fmt"

	"groups-service/internal/docstore"
	"groups-service/internal/domain"
)

// GroupRepo persists groups in the document store.
type GroupRepo struct {
	store docstore.Store
}

// NewGroupRepo creates a GroupRepo over the given store.
func NewGroupRepo(store docstore.Store) *GroupRepo {
	return &GroupRepo{store: store}
}

// GetByID returns the group with the given id.
func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	err := r.store.GetByID(ctx, CollectionGroups, id, &g)
	switch {
	case errors.Is(err, docstore.ErrNoDocument):
		return nil, domain.ErrNotFound("group %s not found", id)
	case err != nil:
		return nil, fmt.Errorf("lookup group %s: %w", id, err)
	}
	return &g, nil
}

// ListByParticipant returns groups whose participant set contains userID,
// in creation order.
func (r *GroupRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Group, error) {
	var groups []domain.Group
	pred := docstore.ArrayContains("participantes", userID)
	if err := r.store.FindMany(ctx, CollectionGroups, pred, &groups); err != nil {
		return nil, fmt.Errorf("list groups by participant %s: %w", userID, err)
	}
	return groups, nil
}

// ListByCreator returns groups created by userID, in creation order.
func (r *GroupRepo) ListByCreator(ctx context.Context, userID string) ([]domain.Group, error) {
	var groups []domain.Group
	pred := docstore.Eq("createdBy", userID)
	if err := r.store.FindMany(ctx, CollectionGroups, pred, &groups); err != nil {
		return nil, fmt.Errorf("list groups by creator %s: %w", userID, err)
	}
	return groups, nil
}

// Create persists a new group and fills in its assigned id.
func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	id, err := r.store.Insert(ctx, CollectionGroups, g)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	g.ID = id
	return nil
}

// AddParticipant adds userID to the group's participant set. The union happens
// inside the store, so concurrent additions to the same group never lose
// elements. Adding an id that is already present succeeds without effect.
func (r *GroupRepo) AddParticipant(ctx context.Context, id, userID string) error {
	err := r.store.AddToSet(ctx, CollectionGroups, id, "participantes", userID)
	switch {
	case errors.Is(err, docstore.ErrNoDocument):
		return domain.ErrNotFound("group %s not found", id)
	case err != nil:
		return fmt.Errorf("add participant to group %s: %w", id, err)
	}
	return nil
}
