// Package middleware provides HTTP middleware: authentication, request IDs,
// and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"groups-service/internal/domain"
)

// TokenLookup resolves a presented credential to a token record.
// Implemented by repository.TokenRepo.
type TokenLookup interface {
	GetByToken(ctx context.Context, token string) (*domain.TokenRecord, error)
}

// UserLookup resolves a user id to an account.
// Implemented by repository.UserRepo.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authorizer gates protected operations behind credential verification and a
// per-route role allow-list. It is read-only: it never mints or mutates
// tokens.
type Authorizer struct {
	tokens TokenLookup
	users  UserLookup
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthorizer creates an Authorizer over the given lookups.
func NewAuthorizer(tokens TokenLookup, users UserLookup, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{tokens: tokens, users: users, logger: logger, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (a *Authorizer) WithClock(now func() time.Time) *Authorizer {
	a.now = now
	return a
}

// Authorize verifies a credential against the token store and checks the
// resolved user's role against allowedRoles.
//
// Failures are typed: UnauthenticatedError for a missing, unknown, ambiguous,
// or expired credential and for a token whose user no longer exists;
// AccessDeniedError for a role outside the allow-list. Any other error is an
// infrastructure failure and is returned wrapped.
func (a *Authorizer) Authorize(ctx context.Context, allowedRoles []string, credential string) (domain.Principal, error) {
	if credential == "" {
		return domain.Principal{}, domain.ErrUnauthenticated("missing credential")
	}

	rec, err := a.tokens.GetByToken(ctx, credential)
	if err != nil {
		var notFound *domain.NotFoundError
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &notFound):
			return domain.Principal{}, domain.ErrUnauthenticated("invalid credential")
		case errors.As(err, &conflict):
			// Multiple records matching one credential is a store integrity
			// problem; reject rather than picking one.
			return domain.Principal{}, domain.ErrUnauthenticated("ambiguous credential")
		default:
			return domain.Principal{}, err
		}
	}

	if rec.Expired(a.now()) {
		return domain.Principal{}, domain.ErrUnauthenticated("expired credential")
	}

	user, err := a.users.GetByID(ctx, rec.UserID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Principal{}, domain.ErrUnauthenticated("principal not found")
		}
		return domain.Principal{}, err
	}

	if !slices.Contains(allowedRoles, user.Role) {
		return domain.Principal{}, domain.ErrAccessDenied("insufficient role")
	}

	return domain.Principal{ID: rec.UserID, Role: user.Role}, nil
}

// RequireRoles returns an HTTP middleware that authorizes each request with
// the given role allow-list. On success the resolved principal is stored in
// the request context; on failure the request halts with a JSON error.
func (a *Authorizer) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authorize(r.Context(), roles, BearerToken(r))
			if err != nil {
				a.writeAuthError(w, r, err)
				return
			}

			ctx := domain.WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from the Authorization header.
// Returns "" when the header is absent or not a Bearer scheme.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *Authorizer) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var unauth *domain.UnauthenticatedError
	var denied *domain.AccessDeniedError

	status := http.StatusInternalServerError
	message := "token verification failed"
	switch {
	case errors.As(err, &unauth):
		status = http.StatusUnauthorized
		message = unauth.Message
	case errors.As(err, &denied):
		status = http.StatusForbidden
		message = denied.Message
	default:
		a.logger.Error("token verification failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
