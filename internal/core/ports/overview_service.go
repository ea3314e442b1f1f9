package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// UserOverview summarises one user's dashboard.
type UserOverview struct {
	ActiveLicenses int
	TotalLicenses  int
	TotalSpent     int64
}

// AdminOverview summarises the whole portal.
type AdminOverview struct {
	TotalRevenue            int64
	PendingLicenses         int
	PendingInvestorRequests int
	TotalUsers              int
}

// OverviewService computes dashboard summaries.
type OverviewService interface {
	UserOverview(ctx context.Context, userID string) (*UserOverview, error)
	AdminOverview(ctx context.Context, actor *domain.User) (*AdminOverview, error)
}

// TicketService serves the read-only support ticket views.
type TicketService interface {
	ListForUser(ctx context.Context, userID string) ([]domain.SupportTicket, error)
	ListAll(ctx context.Context, actor *domain.User) ([]domain.SupportTicket, error)
}
