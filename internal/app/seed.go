package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"groups-service/internal/docstore"
	"groups-service/internal/domain"
	"groups-service/internal/repository"
)

// Seed populates the document store with demo users, token records, and a
// group. Idempotent: it skips when any admin user already exists. The token strings
// are logged so they can be pasted into Authorization headers during
// development.
func Seed(ctx context.Context, store docstore.Store, logger *slog.Logger) error {
	var existing []domain.User
	pred := docstore.Eq("role", domain.RoleAdmin)
	if err := store.FindMany(ctx, repository.CollectionUsers, pred, &existing); err != nil {
		return fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	adminID, err := store.Insert(ctx, repository.CollectionUsers, domain.User{Role: domain.RoleAdmin})
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	mortalID, err := store.Insert(ctx, repository.CollectionUsers, domain.User{Role: domain.RoleMortal})
	if err != nil {
		return fmt.Errorf("seed mortal user: %w", err)
	}

	expiry := time.Now().Add(24 * time.Hour).UTC()
	tokens := []domain.TokenRecord{
		{Token: "dev-admin-token", UserID: adminID, ExpiresAt: expiry},
		{Token: "dev-mortal-token", UserID: mortalID, ExpiresAt: expiry},
	}
	for _, rec := range tokens {
		if _, err := store.Insert(ctx, repository.CollectionTokens, rec); err != nil {
			return fmt.Errorf("seed token for %s: %w", rec.UserID, err)
		}
	}

	group := domain.Group{
		Name:         "demo",
		Participants: []string{mortalID},
		CreatedBy:    adminID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := store.Insert(ctx, repository.CollectionGroups, group); err != nil {
		return fmt.Errorf("seed demo group: %w", err)
	}

	logger.Info("seeded demo data",
		"admin_user", adminID,
		"mortal_user", mortalID,
		"admin_token", "dev-admin-token",
		"mortal_token", "dev-mortal-token",
		"token_expiry", expiry,
	)
	return nil
}
