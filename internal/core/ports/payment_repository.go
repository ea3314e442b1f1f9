package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// PaymentRepository is the append-only ledger. There is deliberately no
// update or delete.
type PaymentRepository interface {
	Append(ctx context.Context, p *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	// List returns entries newest first; an empty userID lists everyone.
	List(ctx context.Context, userID string) ([]domain.Payment, error)
}
