package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groups-service/internal/domain"
)

// === Stub lookups ===

type stubTokenLookup struct {
	records map[string]*domain.TokenRecord
	err     error
}

func (s *stubTokenLookup) GetByToken(_ context.Context, token string) (*domain.TokenRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[token]
	if !ok {
		return nil, domain.ErrNotFound("token record not found")
	}
	return rec, nil
}

type stubUserLookup struct {
	users map[string]*domain.User
	err   error
}

func (s *stubUserLookup) GetByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user %s not found", id)
	}
	return u, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthorizer(tokens *stubTokenLookup, users *stubUserLookup) *Authorizer {
	return NewAuthorizer(tokens, users, nil).WithClock(func() time.Time { return testNow })
}

func validStubs() (*stubTokenLookup, *stubUserLookup) {
	tokens := &stubTokenLookup{records: map[string]*domain.TokenRecord{
		"t1": {ID: "tok1", Token: "t1", UserID: "u1", ExpiresAt: testNow.Add(time.Hour)},
		"t2": {ID: "tok2", Token: "t2", UserID: "u2", ExpiresAt: testNow.Add(time.Hour)},
		"t3": {ID: "tok3", Token: "t3", UserID: "u1", ExpiresAt: testNow.Add(-time.Minute)},
		"t4": {ID: "tok4", Token: "t4", UserID: "ghost", ExpiresAt: testNow.Add(time.Hour)},
	}}
	users := &stubUserLookup{users: map[string]*domain.User{
		"u1": {ID: "u1", Role: domain.RoleMortal},
		"u2": {ID: "u2", Role: domain.RoleAdmin},
	}}
	return tokens, users
}

// === Authorize ===

func TestAuthorizeSuccess(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	p, err := a.Authorize(context.Background(), []string{domain.RoleAdmin, domain.RoleMortal}, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: "u1", Role: domain.RoleMortal}, p)
}

func TestAuthorizeMissingCredential(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin}, "")
	var unauth *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "missing credential", unauth.Message)
}

func TestAuthorizeUnknownCredential(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin}, "nope")
	var unauth *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "invalid credential", unauth.Message)
}

func TestAuthorizeExpiredCredential(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin, domain.RoleMortal}, "t3")
	var unauth *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "expired credential", unauth.Message)
}

func TestAuthorizeExpiryBoundary(t *testing.T) {
	// A token expiring exactly now is not yet expired; only strictly-before
	// fails.
	tokens, users := validStubs()
	tokens.records["edge"] = &domain.TokenRecord{Token: "edge", UserID: "u1", ExpiresAt: testNow}
	a := newTestAuthorizer(tokens, users)

	_, err := a.Authorize(context.Background(), []string{domain.RoleMortal}, "edge")
	assert.NoError(t, err)
}

func TestAuthorizeAmbiguousCredential(t *testing.T) {
	tokens := &stubTokenLookup{err: domain.ErrConflict("credential matches multiple token records")}
	a := newTestAuthorizer(tokens, &stubUserLookup{})

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin}, "dup")
	var unauth *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "ambiguous credential", unauth.Message)
}

func TestAuthorizePrincipalNotFound(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin, domain.RoleMortal}, "t4")
	var unauth *domain.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "principal not found", unauth.Message)
}

func TestAuthorizeRoleOutsideAllowList(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	// A valid credential with a disallowed role is forbidden, never
	// unauthenticated.
	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin}, "t1")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "insufficient role", denied.Message)
}

func TestAuthorizeStoreFailureIsNotUnauthenticated(t *testing.T) {
	tokens := &stubTokenLookup{err: assert.AnError}
	a := newTestAuthorizer(tokens, &stubUserLookup{})

	_, err := a.Authorize(context.Background(), []string{domain.RoleAdmin}, "t1")
	require.Error(t, err)

	var unauth *domain.UnauthenticatedError
	var denied *domain.AccessDeniedError
	assert.False(t, errors.As(err, &unauth), "infrastructure failures must stay internal")
	assert.False(t, errors.As(err, &denied), "infrastructure failures must stay internal")
}

// === RequireRoles middleware ===

func protectedHandler(t *testing.T, captured *domain.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		require.True(t, ok, "handler reached without principal in context")
		*captured = p
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRolesAttachesPrincipal(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	var captured domain.Principal
	srv := a.RequireRoles(domain.RoleAdmin, domain.RoleMortal)(protectedHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	req.Header.Set("Authorization", "Bearer t1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Principal{ID: "u1", Role: domain.RoleMortal}, captured)
}

func TestRequireRolesRejections(t *testing.T) {
	a := newTestAuthorizer(validStubs())

	tests := []struct {
		name       string
		authHeader string
		roles      []string
		wantStatus int
	}{
		{name: "no header", authHeader: "", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusUnauthorized},
		{name: "malformed scheme", authHeader: "Basic dXNlcg==", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusUnauthorized},
		{name: "unknown token", authHeader: "Bearer nope", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer t3", roles: []string{domain.RoleAdmin, domain.RoleMortal}, wantStatus: http.StatusUnauthorized},
		{name: "orphaned token", authHeader: "Bearer t4", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusUnauthorized},
		{name: "role not allowed", authHeader: "Bearer t1", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
			srv := a.RequireRoles(tt.roles...)(next)

			req := httptest.NewRequest(http.MethodGet, "/groups", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, called, "request must halt before the handler")
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "message")
		})
	}
}

func TestRequireRolesStoreFailureIs500(t *testing.T) {
	tokens := &stubTokenLookup{err: assert.AnError}
	a := newTestAuthorizer(tokens, &stubUserLookup{})

	srv := a.RequireRoles(domain.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	req.Header.Set("Authorization", "Bearer t1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// === BearerToken ===

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "absent", header: "", want: ""},
		{name: "bearer", header: "Bearer abc123", want: "abc123"},
		{name: "bearer with padding", header: "Bearer   abc123  ", want: "abc123"},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(req))
		})
	}
}
