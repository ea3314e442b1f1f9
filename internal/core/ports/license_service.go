package ports

import (
	"context"

	"github.com/tradeloom/portal/internal/core/domain"
)

// CreateLicenseInput carries a user's request for a new license.
type CreateLicenseInput struct {
	UserID         string
	MT5AccountID   string
	BrokerServer   string
	IdempotencyKey string
}

// LicenseRequestResult is the license and the payment recorded with it.
type LicenseRequestResult struct {
	License *domain.License
	Payment *domain.Payment
	// Replayed is true when the idempotency key matched an earlier request.
	Replayed bool
}

// LicenseService drives the license approval workflow. Methods taking an
// actor are admin operations.
type LicenseService interface {
	Create(ctx context.Context, in CreateLicenseInput) (*LicenseRequestResult, error)
	Approve(ctx context.Context, actor *domain.User, id, key string) (*domain.License, error)
	Reject(ctx context.Context, actor *domain.User, id string) error
	Suspend(ctx context.Context, actor *domain.User, id string) (*domain.License, error)
	Reinstate(ctx context.Context, actor *domain.User, id string) (*domain.License, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
	ListForUser(ctx context.Context, userID string) ([]domain.License, error)
	ListAll(ctx context.Context, actor *domain.User, status string) ([]domain.License, error)
}
