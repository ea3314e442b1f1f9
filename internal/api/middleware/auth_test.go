package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

type stubIdentity struct {
	ports.IdentityService
	sessions map[string]*domain.User
	tokens   map[string]string
	loadErr  error
}

func (s *stubIdentity) ParseToken(token string) (string, error) {
	sid, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return sid, nil
}

func (s *stubIdentity) Resolve(_ context.Context, sessionID string) (*domain.User, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	u, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return u, nil
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		sessions: map[string]*domain.User{"s1": {ID: "u1", Email: "trader@x.com", Role: domain.RoleUser}},
		tokens:   map[string]string{"good": "s1", "stale": "s-gone"},
	}
}

func runAuth(t *testing.T, identity ports.IdentityService, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(identity)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidSession(t *testing.T) {
	rec, c, called := runAuth(t, newStubIdentity(), "Bearer good")

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	user, _ := c.Get(ContextUser).(*domain.User)
	if user == nil || user.ID != "u1" {
		t.Fatalf("user not set: %+v", user)
	}
	if c.Get(ContextSessionID) != "s1" {
		t.Fatalf("session id not set")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token good"},
		{"empty token", "Bearer   "},
		{"unknown token", "Bearer forged"},
		{"session gone", "Bearer stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runAuth(t, newStubIdentity(), tt.header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_StoreFailure(t *testing.T) {
	identity := newStubIdentity()
	identity.loadErr = errors.New("redis down")

	rec, _, called := runAuth(t, identity, "Bearer good")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
