package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groups-service/internal/docstore"
	"groups-service/internal/domain"
)

func TestGetByTokenResolvesRecord(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()

	want := domain.TokenRecord{Token: "t1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	_, err := store.Insert(ctx, CollectionTokens, want)
	require.NoError(t, err)

	got, err := NewTokenRepo(store).GetByToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.NotEmpty(t, got.ID)
}

func TestGetByTokenUnknown(t *testing.T) {
	repo := NewTokenRepo(docstore.NewMemoryStore())

	_, err := repo.GetByToken(context.Background(), "nope")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGetByTokenAmbiguousIsRejected(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()

	// Two records sharing one token string: store integrity is broken, so the
	// lookup refuses to pick a winner.
	for i := 0; i < 2; i++ {
		_, err := store.Insert(ctx, CollectionTokens, domain.TokenRecord{Token: "dup", UserID: "u1"})
		require.NoError(t, err)
	}

	_, err := NewTokenRepo(store).GetByToken(ctx, "dup")
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
