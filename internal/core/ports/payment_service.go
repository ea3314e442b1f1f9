package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// PaymentService records and reads the payment ledger.
type PaymentService interface {
	Record(ctx context.Context, userID string, amount int64, product string) (*domain.Payment, error)
	Find(ctx context.Context, id string) (*domain.Payment, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Payment, error)
	ListAll(ctx context.Context, actor *domain.User) ([]domain.Payment, error)
}
