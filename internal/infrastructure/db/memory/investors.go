package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tradeloom/portal/internal/core/domain"
)

type InvestorRequestRepository struct {
	mu       sync.Mutex
	requests []*domain.InvestorRequest
}

func NewInvestorRequestRepository() *InvestorRequestRepository {
	return &InvestorRequestRepository{}
}

func (r *InvestorRequestRepository) Create(_ context.Context, req *domain.InvestorRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(req.ID) != nil {
		return fmt.Errorf("investor request %s already exists", req.ID)
	}
	clone := *req
	r.requests = append(r.requests, &clone)
	return nil
}

func (r *InvestorRequestRepository) FindByID(_ context.Context, id string) (*domain.InvestorRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := r.find(id)
	if req == nil {
		return nil, domain.ErrInvestorRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// List returns requests in status, newest first.
func (r *InvestorRequestRepository) List(_ context.Context, status domain.InvestorRequestStatus) ([]domain.InvestorRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.InvestorRequest, 0, len(r.requests))
	for i := len(r.requests) - 1; i >= 0; i-- {
		if status != "" && r.requests[i].Status != status {
			continue
		}
		out = append(out, *r.requests[i])
	}
	return out, nil
}

func (r *InvestorRequestRepository) MarkSent(_ context.Context, id string) (*domain.InvestorRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := r.find(id)
	if req == nil {
		return nil, domain.ErrInvestorRequestNotFound
	}
	if req.Status != domain.InvestorPending {
		return nil, fmt.Errorf("%w (request is %s)", domain.ErrInvalidTransition, req.Status)
	}
	req.Status = domain.InvestorSent
	clone := *req
	return &clone, nil
}

func (r *InvestorRequestRepository) find(id string) *domain.InvestorRequest {
	for _, req := range r.requests {
		if req.ID == id {
			return req
		}
	}
	return nil
}
