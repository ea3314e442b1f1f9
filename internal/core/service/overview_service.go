package service

import (
	"context"
	"fmt"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

// OverviewService aggregates the dashboard figures from the stores.
type OverviewService struct {
	users     ports.UserRepository
	licenses  ports.LicenseRepository
	payments  ports.PaymentRepository
	investors ports.InvestorRequestRepository
}

func NewOverviewService(
	users ports.UserRepository,
	licenses ports.LicenseRepository,
	payments ports.PaymentRepository,
	investors ports.InvestorRequestRepository,
) *OverviewService {
	return &OverviewService{users: users, licenses: licenses, payments: payments, investors: investors}
}

func (s *OverviewService) UserOverview(ctx context.Context, userID string) (*ports.UserOverview, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	licenses, err := s.licenses.List(ctx, ports.LicenseFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("user overview: %w", err)
	}
	payments, err := s.payments.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user overview: %w", err)
	}
	return &ports.UserOverview{
		ActiveLicenses: domain.CountLicenses(licenses, domain.LicenseActive),
		TotalLicenses:  len(licenses),
		TotalSpent:     domain.TotalRevenue(payments),
	}, nil
}

// AdminOverview is admin only.
func (s *OverviewService) AdminOverview(ctx context.Context, actor *domain.User) (*ports.AdminOverview, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	pending, err := s.licenses.List(ctx, ports.LicenseFilter{Status: domain.LicensePending})
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	payments, err := s.payments.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	requests, err := s.investors.List(ctx, domain.InvestorPending)
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	return &ports.AdminOverview{
		TotalRevenue:            domain.TotalRevenue(payments),
		PendingLicenses:         len(pending),
		PendingInvestorRequests: len(requests),
		TotalUsers:              len(users),
	}, nil
}

// TicketService serves the read-only support ticket views.
type TicketService struct {
	repo ports.TicketRepository
}

func NewTicketService(repo ports.TicketRepository) *TicketService {
	return &TicketService{repo: repo}
}

func (s *TicketService) ListForUser(ctx context.Context, userID string) ([]domain.SupportTicket, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, userID)
}

func (s *TicketService) ListAll(ctx context.Context, actor *domain.User) ([]domain.SupportTicket, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, "")
}
