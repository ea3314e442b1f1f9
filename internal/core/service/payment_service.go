package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/pkg/idx"
)

const (
	transactionPrefix = "pay_"
	transactionLen    = 9
	base36            = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// PaymentService is the append-only payment ledger.
type PaymentService struct {
	repo ports.PaymentRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewPaymentService(repo ports.PaymentRepository, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Record appends a successful payment. Ledger entries are never modified.
func (s *PaymentService) Record(ctx context.Context, userID string, amount int64, product string) (*domain.Payment, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(product) == "" {
		return nil, fmt.Errorf("%w: user_id and product are required", domain.ErrInvalidInput)
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
	}

	p := &domain.Payment{
		ID:            idx.New(),
		UserID:        userID,
		TransactionID: generateTransactionID(),
		Date:          s.now(),
		Amount:        amount,
		Product:       product,
		Status:        domain.PaymentSuccess,
	}
	if err := s.repo.Append(ctx, p); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to record payment")
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("transaction_id", p.TransactionID).
		Int64("amount", amount).
		Msg("payment recorded")
	return p, nil
}

// Find returns a single ledger entry.
func (s *PaymentService) Find(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PaymentService) ListForUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, userID)
}

// ListAll returns the whole ledger. Admin only.
func (s *PaymentService) ListAll(ctx context.Context, actor *domain.User) ([]domain.Payment, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, "")
}

// generateTransactionID returns an id in the format pay_xxxxxxxxx (base36).
func generateTransactionID() string {
	var b strings.Builder
	b.WriteString(transactionPrefix)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < transactionLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// fallback: derive from the clock
			n = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}
