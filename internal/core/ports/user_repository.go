package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// UserRepository persists portal identities. Create returns
// domain.ErrUserExists when the email is already taken.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
}
