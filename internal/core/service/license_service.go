package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/pkg/idx"
)

// DefaultLicensePrice is the price of one license request, in rupees.
const DefaultLicensePrice int64 = 25000

// LicenseOptions tunes the license request flow.
type LicenseOptions struct {
	// Price is charged for every new license request.
	Price int64
	// ProcessingDelay simulates the payment gateway round trip. Once started
	// it always runs to completion and the request is committed.
	ProcessingDelay time.Duration
}

// LicenseService implements the license approval workflow.
type LicenseService struct {
	licenses ports.LicenseRepository
	users    ports.UserRepository
	ledger   ports.PaymentService
	idem     ports.IdempotencyStore
	queue    ports.NotificationQueue
	opts     LicenseOptions
	log      zerolog.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

func NewLicenseService(
	licenses ports.LicenseRepository,
	users ports.UserRepository,
	ledger ports.PaymentService,
	idem ports.IdempotencyStore,
	queue ports.NotificationQueue,
	opts LicenseOptions,
	log zerolog.Logger,
) *LicenseService {
	if opts.Price <= 0 {
		opts.Price = DefaultLicensePrice
	}
	return &LicenseService{
		licenses: licenses,
		users:    users,
		ledger:   ledger,
		idem:     idem,
		queue:    queue,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    time.Sleep,
	}
}

// Create charges the user and files a pending license. If the caller already
// used the idempotency key, the earlier license and payment are returned and
// nothing is charged. A retry that arrives while the first attempt is still
// processing fails with ErrIdempotencyKeyUsed.
func (s *LicenseService) Create(ctx context.Context, in ports.CreateLicenseInput) (*ports.LicenseRequestResult, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.MT5AccountID = strings.TrimSpace(in.MT5AccountID)
	in.BrokerServer = strings.TrimSpace(in.BrokerServer)
	if in.UserID == "" || in.MT5AccountID == "" || in.BrokerServer == "" {
		return nil, fmt.Errorf("%w: user_id, mt5_account_id and broker_server are required", domain.ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("create license: %w", err)
	}

	// keys are per user so one account can never replay another's request
	var claim string
	if in.IdempotencyKey != "" {
		key := in.UserID + ":" + in.IdempotencyKey
		res, claimed, err := s.reserve(ctx, key, in.UserID)
		if err != nil || res != nil {
			return res, err
		}
		if claimed {
			claim = key
		}
	}

	if s.opts.ProcessingDelay > 0 {
		s.sleep(s.opts.ProcessingDelay)
	}
	// The simulated charge has gone through; commit even if the caller left.
	ctx = context.WithoutCancel(ctx)

	lic := &domain.License{
		ID:           idx.New(),
		UserID:       in.UserID,
		Key:          domain.PendingKey,
		MT5AccountID: in.MT5AccountID,
		BrokerServer: in.BrokerServer,
		Status:       domain.LicensePending,
		CreatedDate:  s.now(),
	}
	if err := s.licenses.Create(ctx, lic); err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("failed to create license")
		s.release(ctx, claim)
		return nil, fmt.Errorf("create license: %w", err)
	}

	pay, err := s.ledger.Record(ctx, in.UserID, s.opts.Price, domain.ProductLicenseRequest)
	if err != nil {
		// an unpaid request must not reach the approval queue
		if derr := s.licenses.Delete(ctx, lic.ID, domain.LicensePending); derr != nil {
			s.log.Error().Err(derr).Str("license_id", lic.ID).Msg("failed to withdraw unpaid license")
		}
		s.release(ctx, claim)
		return nil, fmt.Errorf("create license: %w", err)
	}

	if claim != "" {
		if err := s.idem.Complete(ctx, claim, lic.ID+":"+pay.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", claim).Msg("failed to remember idempotency key")
		}
	}

	s.log.Info().
		Str("license_id", lic.ID).
		Str("user_id", in.UserID).
		Str("broker_server", in.BrokerServer).
		Msg("license requested")

	return &ports.LicenseRequestResult{License: lic, Payment: pay}, nil
}

// reserve claims key for this request. It returns the earlier result when
// the key already completed. claimed is false without a result when the store
// is unavailable and the request runs without idempotency.
func (s *LicenseService) reserve(ctx context.Context, key, userID string) (res *ports.LicenseRequestResult, claimed bool, err error) {
	ref, claimed, err := s.idem.Reserve(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency store unavailable, processing anyway")
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if ref == "" {
		return nil, false, fmt.Errorf("%w: a request with this key is still processing", domain.ErrIdempotencyKeyUsed)
	}
	res, err = s.replay(ctx, key, ref, userID)
	return res, false, err
}

func (s *LicenseService) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.idem.Release(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
	}
}

func (s *LicenseService) replay(ctx context.Context, key, ref, userID string) (*ports.LicenseRequestResult, error) {
	licenseID, paymentID, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("idempotency key %q: malformed reference %q", key, ref)
	}
	lic, err := s.licenses.FindByID(ctx, licenseID)
	if err != nil {
		return nil, fmt.Errorf("replay license request: %w", err)
	}
	pay, err := s.ledger.Find(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("replay license request: %w", err)
	}
	if lic.UserID != userID || pay.UserID != userID {
		return nil, fmt.Errorf("%w: key belongs to another account", domain.ErrIdempotencyKeyUsed)
	}

	s.log.Info().Str("idempotency_key", key).Str("license_id", lic.ID).Msg("idempotent replay")
	return &ports.LicenseRequestResult{License: lic, Payment: pay, Replayed: true}, nil
}

// Approve issues key for a pending license and activates it. The owner is
// notified asynchronously.
func (s *LicenseService) Approve(ctx context.Context, actor *domain.User, id, key string) (*domain.License, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: license key is required", domain.ErrInvalidInput)
	}

	lic, err := s.transition(ctx, id, domain.LicensePending, domain.LicenseActive, key)
	if err != nil {
		return nil, fmt.Errorf("approve license: %w", err)
	}

	s.notifyIssued(ctx, lic)
	s.log.Info().Str("license_id", id).Str("admin_id", actor.ID).Msg("license approved")
	return lic, nil
}

// Reject discards a pending license request. No rejected status is kept.
func (s *LicenseService) Reject(ctx context.Context, actor *domain.User, id string) error {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return domain.ErrForbidden
	}
	current, err := s.licenses.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reject license: %w", err)
	}
	if current.Status != domain.LicensePending {
		return fmt.Errorf("reject license: %w (license is %s)", domain.ErrInvalidTransition, current.Status)
	}
	if err := s.licenses.Delete(ctx, id, domain.LicensePending); err != nil {
		return fmt.Errorf("reject license: %w", err)
	}

	s.log.Info().Str("license_id", id).Str("admin_id", actor.ID).Msg("license request rejected")
	return nil
}

func (s *LicenseService) Suspend(ctx context.Context, actor *domain.User, id string) (*domain.License, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	lic, err := s.transition(ctx, id, domain.LicenseActive, domain.LicenseSuspended, "")
	if err != nil {
		return nil, fmt.Errorf("suspend license: %w", err)
	}
	s.log.Info().Str("license_id", id).Str("admin_id", actor.ID).Msg("license suspended")
	return lic, nil
}

func (s *LicenseService) Reinstate(ctx context.Context, actor *domain.User, id string) (*domain.License, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	lic, err := s.transition(ctx, id, domain.LicenseSuspended, domain.LicenseActive, "")
	if err != nil {
		return nil, fmt.Errorf("reinstate license: %w", err)
	}
	s.log.Info().Str("license_id", id).Str("admin_id", actor.ID).Msg("license reinstated")
	return lic, nil
}

// Delete removes a license in any status.
func (s *LicenseService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return domain.ErrForbidden
	}
	if err := s.licenses.Delete(ctx, id, ""); err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	s.log.Info().Str("license_id", id).Str("admin_id", actor.ID).Msg("license deleted")
	return nil
}

func (s *LicenseService) ListForUser(ctx context.Context, userID string) ([]domain.License, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	return s.licenses.List(ctx, ports.LicenseFilter{UserID: userID})
}

// ListAll returns every license, optionally narrowed to one status. Admin only.
func (s *LicenseService) ListAll(ctx context.Context, actor *domain.User, status string) ([]domain.License, error) {
	if !domain.CanAccess(actor, domain.ResourceAdminPanel) {
		return nil, domain.ErrForbidden
	}
	st, ok := domain.ParseLicenseFilter(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown license status %q", domain.ErrInvalidInput, status)
	}
	return s.licenses.List(ctx, ports.LicenseFilter{Status: st})
}

// transition validates from -> to against the state machine and applies it
// as a compare-and-set.
func (s *LicenseService) transition(ctx context.Context, id string, from, to domain.LicenseStatus, key string) (*domain.License, error) {
	current, err := s.licenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != from || !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, current.Status, to)
	}
	return s.licenses.UpdateStatus(ctx, id, from, to, key)
}

func (s *LicenseService) notifyIssued(ctx context.Context, lic *domain.License) {
	owner, err := s.users.FindByID(ctx, lic.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Err(err).Str("license_id", lic.ID).Msg("owner lookup failed, key not sent")
		}
		return
	}
	s.queue.Enqueue(ports.Notification{
		Kind:      ports.NotifyLicenseIssued,
		Recipient: owner.Email,
		Subject:   "Your AlgoPilot license is active",
		Fields: map[string]string{
			"license_id":     lic.ID,
			"license_key":    lic.Key,
			"mt5_account_id": lic.MT5AccountID,
			"broker_server":  lic.BrokerServer,
		},
	})
}
