package ports

import (
	"context"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
)

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	User      *domain.User
}

// IdentityService resolves emails to users and manages their sessions.
type IdentityService interface {
	Login(ctx context.Context, email string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (*domain.User, error)
	// ParseToken verifies a bearer token and returns the session it names.
	ParseToken(token string) (sessionID string, err error)
	ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error)
}
