package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

type LicenseRepository struct {
	mu   sync.Mutex
	byID map[string]*domain.License
}

func NewLicenseRepository() *LicenseRepository {
	return &LicenseRepository{byID: make(map[string]*domain.License)}
}

func (r *LicenseRepository) Create(_ context.Context, l *domain.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[l.ID]; exists {
		return fmt.Errorf("license %s already exists", l.ID)
	}
	r.byID[l.ID] = cloneLicense(l)
	return nil
}

func (r *LicenseRepository) FindByID(_ context.Context, id string) (*domain.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLicenseNotFound
	}
	return cloneLicense(l), nil
}

// List returns matching licenses, newest first.
func (r *LicenseRepository) List(_ context.Context, f ports.LicenseFilter) ([]domain.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.License, 0, len(r.byID))
	for _, l := range r.byID {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, *cloneLicense(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate) {
			return out[i].CreatedDate.After(out[j].CreatedDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *LicenseRepository) UpdateStatus(_ context.Context, id string, from, to domain.LicenseStatus, key string) (*domain.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLicenseNotFound
	}
	if l.Status != from {
		return nil, fmt.Errorf("%w (license is %s, expected %s)", domain.ErrInvalidTransition, l.Status, from)
	}
	l.Status = to
	if key != "" {
		l.Key = key
	}
	return cloneLicense(l), nil
}

func (r *LicenseRepository) Delete(_ context.Context, id string, from domain.LicenseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return domain.ErrLicenseNotFound
	}
	if from != "" && l.Status != from {
		return fmt.Errorf("%w (license is %s, expected %s)", domain.ErrInvalidTransition, l.Status, from)
	}
	delete(r.byID, id)
	return nil
}

func cloneLicense(l *domain.License) *domain.License {
	clone := *l
	if l.ExpiryDate != nil {
		exp := *l.ExpiryDate
		clone.ExpiryDate = &exp
	}
	return &clone
}
