package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// LicenseFilter narrows a license listing. Zero fields do not filter.
type LicenseFilter struct {
	UserID string
	Status domain.LicenseStatus
}

// LicenseRepository persists license records. Listings are newest first.
type LicenseRepository interface {
	Create(ctx context.Context, l *domain.License) error
	FindByID(ctx context.Context, id string) (*domain.License, error)
	List(ctx context.Context, filter LicenseFilter) ([]domain.License, error)

	// UpdateStatus moves the license from status from to status to, and sets
	// the key when key is non-empty. It is a compare-and-set: if the stored
	// status is no longer from, nothing changes and domain.ErrInvalidTransition
	// is returned.
	UpdateStatus(ctx context.Context, id string, from, to domain.LicenseStatus, key string) (*domain.License, error)

	// Delete hard-removes the license whatever its status. When from is
	// non-empty the removal only happens if the stored status still matches.
	Delete(ctx context.Context, id string, from domain.LicenseStatus) error
}
