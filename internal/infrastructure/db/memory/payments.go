package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tradeloom/portal/internal/core/domain"
)

// PaymentRepository is an append-only slice. Entries are stored oldest first
// and listed newest first.
type PaymentRepository struct {
	mu      sync.RWMutex
	entries []domain.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Append(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == p.ID {
			return fmt.Errorf("payment %s already recorded", p.ID)
		}
	}
	r.entries = append(r.entries, *p)
	return nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			p := e
			return &p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *PaymentRepository) List(_ context.Context, userID string) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Payment, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		if userID != "" && r.entries[i].UserID != userID {
			continue
		}
		out = append(out, r.entries[i])
	}
	return out, nil
}
