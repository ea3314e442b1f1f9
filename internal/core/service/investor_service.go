package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/pkg/idx"
)

// InvestorService runs the investor access request queue.
type InvestorService struct {
	repo  ports.InvestorRequestRepository
	queue ports.NotificationQueue
	log   zerolog.Logger
	now   func() time.Time
}

func NewInvestorService(repo ports.InvestorRequestRepository, queue ports.NotificationQueue, log zerolog.Logger) *InvestorService {
	return &InvestorService{
		repo:  repo,
		queue: queue,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a new pending request. Repeated submissions from the same
// address are independent requests.
func (s *InvestorService) Submit(ctx context.Context, email string) (*domain.InvestorRequest, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	req := &domain.InvestorRequest{
		ID:     idx.New(),
		Email:  email,
		Status: domain.InvestorPending,
		Date:   s.now(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("submit investor request: %w", err)
	}

	s.log.Info().Str("request_id", req.ID).Str("email", email).Msg("investor request submitted")
	return req, nil
}

// Resolve marks a pending request as sent and relays creds to the requester.
// The credentials only travel with the notification.
func (s *InvestorService) Resolve(ctx context.Context, actor *domain.User, id string, creds domain.InvestorCredentials) (*domain.InvestorRequest, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(creds.Login) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: investor login and password are required", domain.ErrInvalidInput)
	}

	req, err := s.repo.MarkSent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve investor request: %w", err)
	}

	s.queue.Enqueue(ports.Notification{
		Kind:      ports.NotifyInvestorCredentials,
		Recipient: req.Email,
		Subject:   "Your TradeLoom investor access",
		Fields: map[string]string{
			"investor_login":    strings.TrimSpace(creds.Login),
			"investor_password": creds.Password,
		},
		Secret: []string{"investor_password"},
	})

	s.log.Info().Str("request_id", id).Str("admin_id", actor.ID).Msg("investor credentials sent")
	return req, nil
}

func (s *InvestorService) ListPending(ctx context.Context, actor *domain.User) ([]domain.InvestorRequest, error) {
	return s.list(ctx, actor, domain.InvestorPending)
}

func (s *InvestorService) ListSent(ctx context.Context, actor *domain.User) ([]domain.InvestorRequest, error) {
	return s.list(ctx, actor, domain.InvestorSent)
}

func (s *InvestorService) list(ctx context.Context, actor *domain.User, status domain.InvestorRequestStatus) ([]domain.InvestorRequest, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, status)
}
