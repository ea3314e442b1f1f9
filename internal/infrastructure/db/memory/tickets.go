package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tradeloom/portal/internal/core/domain"
)

type TicketRepository struct {
	mu      sync.RWMutex
	tickets []domain.SupportTicket
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{}
}

func (r *TicketRepository) Create(_ context.Context, t *domain.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, *t)
	return nil
}

// List returns tickets newest first; an empty userID lists all.
func (r *TicketRepository) List(_ context.Context, userID string) ([]domain.SupportTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SupportTicket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if userID != "" && t.UserID != userID {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
