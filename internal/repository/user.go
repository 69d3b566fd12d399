package repository

import (
	"context"
	"errors"
	"fmt"

	"groups-service/internal/docstore"
	"groups-service/internal/domain"
)

// UserRepo reads user accounts from the document store.
type UserRepo struct {
	store docstore.Store
}

// NewUserRepo creates a UserRepo over the given store.
func NewUserRepo(store docstore.Store) *UserRepo {
	return &UserRepo{store: store}
}

// GetByID returns the user with the given id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.store.GetByID(ctx, CollectionUsers, id, &u)
	switch {
	case errors.Is(err, docstore.ErrNoDocument):
		return nil, domain.ErrNotFound("user %s not found", id)
	case err != nil:
		return nil, fmt.Errorf("lookup user %s: %w", id, err)
	}
	return &u, nil
}
