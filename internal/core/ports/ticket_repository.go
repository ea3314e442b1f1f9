package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// TicketRepository serves support tickets. Create exists for seeding only.
type TicketRepository interface {
	Create(ctx context.Context, t *domain.SupportTicket) error
	List(ctx context.Context, userID string) ([]domain.SupportTicket, error)
}
