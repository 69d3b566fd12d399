package domain

import "context"

// TokenRepository resolves presented credentials to token records.
type TokenRepository interface {
	// GetByToken returns the record whose token field equals the credential.
	// Returns NotFoundError when no record matches and ConflictError when the
	// credential matches more than one record (ambiguous credentials are
	// rejected rather than silently taking the first match).
	GetByToken(ctx context.Context, token string) (*TokenRecord, error)
}

// UserRepository reads user accounts.
type UserRepository interface {
	// GetByID returns the user with the given id, or NotFoundError.
	GetByID(ctx context.Context, id string) (*User, error)
}

// GroupRepository persists groups.
type GroupRepository interface {
	// GetByID returns the group with the given id, or NotFoundError.
	GetByID(ctx context.Context, id string) (*Group, error)
	// ListByParticipant returns groups whose participant set contains userID.
	ListByParticipant(ctx context.Context, userID string) ([]Group, error)
	// ListByCreator returns groups created by userID.
	ListByCreator(ctx context.Context, userID string) ([]Group, error)
	// Create persists a new group and fills in its assigned id.
	Create(ctx context.Context, g *Group) error
	// AddParticipant adds userID to the participant set of the group with the
	// given id, atomically with respect to other additions. Adding an id that
	// is already present is a no-op. Returns NotFoundError when the group does
	// not exist.
	AddParticipant(ctx context.Context, id, userID string) error
}
