package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/pkg/idx"
)

// IdentityService implements email login and server-side sessions.
type IdentityService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	jwtSecret  string
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewIdentityService(users ports.UserRepository, sessions ports.SessionStore, jwtSecret string, sessionTTL time.Duration, log zerolog.Logger) *IdentityService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &IdentityService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login resolves email to a user, creating one on first sight, and opens a
// new session for it. No credential is checked.
func (s *IdentityService) Login(ctx context.Context, email string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.findOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	sessionID := idx.New()
	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.sessions.Save(ctx, sessionID, user, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}

	token, err := s.generateToken(user, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")

	return &ports.LoginResult{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *IdentityService) findOrCreate(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("login: find user: %w", err)
	}

	user = &domain.User{
		ID:    idx.New(),
		Name:  domain.NameFromEmail(email),
		Email: email,
		Role:  domain.RoleForEmail(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			return nil, fmt.Errorf("login: create user: %w", err)
		}
		// Lost a race with a concurrent first login for the same email.
		return s.users.FindByEmail(ctx, email)
	}

	if user.Role == domain.RoleAdmin {
		// Known gap: the admin role comes from the email alone.
		s.log.Warn().Str("user_id", user.ID).Str("email", email).Msg("admin role granted by email convention")
	}
	s.log.Info().Str("user_id", user.ID).Msg("user created on first login")
	return user, nil
}

// Logout ends a session. Ending an unknown session is not an error.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Resolve returns the identity bound to sessionID.
func (s *IdentityService) Resolve(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	return s.sessions.Load(ctx, sessionID)
}

// ParseToken verifies an HS256 session token and returns its session id.
func (s *IdentityService) ParseToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrInvalidToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", domain.ErrInvalidToken
	}
	return sid, nil
}

// ListUsers returns every known user. Admin only.
func (s *IdentityService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	return s.users.List(ctx)
}

func (s *IdentityService) generateToken(user *domain.User, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"sid":   sessionID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   expiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
