package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/internal/infrastructure/db/memory"
)

const testSecret = "test-secret"

type stubQueue struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (q *stubQueue) Enqueue(n ports.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, n)
}

func (q *stubQueue) all() []ports.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ports.Notification(nil), q.sent...)
}

type brokenIdempotencyStore struct{}

func (brokenIdempotencyStore) Reserve(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis: connection refused")
}

func (brokenIdempotencyStore) Complete(context.Context, string, string) error {
	return errors.New("redis: connection refused")
}

func (brokenIdempotencyStore) Release(context.Context, string) error {
	return errors.New("redis: connection refused")
}

// failingLedger accepts lookups but refuses every new charge.
type failingLedger struct {
	ports.PaymentService
}

func (failingLedger) Record(context.Context, string, int64, string) (*domain.Payment, error) {
	return nil, errors.New("ledger unavailable")
}

// portal wires every service over fresh in-memory adapters.
type portal struct {
	users     *memory.UserRepository
	licenses  *memory.LicenseRepository
	payments  *memory.PaymentRepository
	investors *memory.InvestorRequestRepository
	tickets   *memory.TicketRepository
	queue     *stubQueue

	identity  *IdentityService
	ledger    *PaymentService
	license   *LicenseService
	investor  *InvestorService
	overview  *OverviewService
	ticketSvc *TicketService
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	return newPortalWithIdempotency(t, memory.NewIdempotencyStore())
}

func newPortalWithIdempotency(t *testing.T, idem ports.IdempotencyStore) *portal {
	t.Helper()
	log := zerolog.Nop()
	p := &portal{
		users:     memory.NewUserRepository(),
		licenses:  memory.NewLicenseRepository(),
		payments:  memory.NewPaymentRepository(),
		investors: memory.NewInvestorRequestRepository(),
		tickets:   memory.NewTicketRepository(),
		queue:     &stubQueue{},
	}
	p.identity = NewIdentityService(p.users, memory.NewSessionStore(), testSecret, time.Hour, log)
	p.ledger = NewPaymentService(p.payments, log)
	p.license = NewLicenseService(p.licenses, p.users, p.ledger, idem, p.queue, LicenseOptions{ProcessingDelay: time.Second}, log)
	p.license.sleep = func(time.Duration) {}
	p.investor = NewInvestorService(p.investors, p.queue, log)
	p.overview = NewOverviewService(p.users, p.licenses, p.payments, p.investors)
	p.ticketSvc = NewTicketService(p.tickets)
	return p
}

func (p *portal) login(t *testing.T, email string) *domain.User {
	t.Helper()
	res, err := p.identity.Login(context.Background(), email)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return res.User
}

func (p *portal) requestLicense(t *testing.T, user *domain.User) *ports.LicenseRequestResult {
	t.Helper()
	res, err := p.license.Create(context.Background(), ports.CreateLicenseInput{
		UserID:       user.ID,
		MT5AccountID: "123",
		BrokerServer: "Exness",
	})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}
	return res
}
