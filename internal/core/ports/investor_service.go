package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// InvestorService runs the investor access request queue.
type InvestorService interface {
	Submit(ctx context.Context, email string) (*domain.InvestorRequest, error)
	Resolve(ctx context.Context, actor *domain.User, id string, creds domain.InvestorCredentials) (*domain.InvestorRequest, error)
	ListPending(ctx context.Context, actor *domain.User) ([]domain.InvestorRequest, error)
	ListSent(ctx context.Context, actor *domain.User) ([]domain.InvestorRequest, error)
}
