package repository

import (
	"context"
	"errors"
	"fmt"

	"groups-service/internal/docstore"
	"groups-service/internal/domain"
)

// TokenRepo reads token records from the document store.
type TokenRepo struct {
	store docstore.Store
}

// NewTokenRepo creates a TokenRepo over the given store.
func NewTokenRepo(store docstore.Store) *TokenRepo {
	return &TokenRepo{store: store}
}

// GetByToken returns the record whose token field equals the credential.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	err := r.store.FindOne(ctx, CollectionTokens, docstore.Eq("token", token), &rec)
	switch {
	case errors.Is(err, docstore.ErrNoDocument):
		return nil, domain.ErrNotFound("token record not found")
	case errors.Is(err, docstore.ErrAmbiguous):
		return nil, domain.ErrConflict("credential matches multiple token records")
	case err != nil:
		return nil, fmt.Errorf("lookup token record: %w", err)
	}
	return &rec, nil
}
