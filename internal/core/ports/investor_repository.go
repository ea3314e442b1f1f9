package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// InvestorRequestRepository persists investor access requests.
type InvestorRequestRepository interface {
	Create(ctx context.Context, r *domain.InvestorRequest) error
	FindByID(ctx context.Context, id string) (*domain.InvestorRequest, error)
	// List returns requests in status, newest first. An empty status lists all.
	List(ctx context.Context, status domain.InvestorRequestStatus) ([]domain.InvestorRequest, error)
	// MarkSent flips a pending request to sent. A request that is already sent
	// yields domain.ErrInvalidTransition.
	MarkSent(ctx context.Context, id string) (*domain.InvestorRequest, error)
}
