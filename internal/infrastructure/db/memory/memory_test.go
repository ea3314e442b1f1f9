package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

func TestUserRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	if err := repo.Create(ctx, &domain.User{ID: "a", Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &domain.User{ID: "b", Email: "a@x.com"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLicenseRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()
	_ = repo.Create(ctx, &domain.License{ID: "l1", UserID: "u1", Key: domain.PendingKey, Status: domain.LicensePending})

	got, err := repo.UpdateStatus(ctx, "l1", domain.LicensePending, domain.LicenseActive, "KEY-1")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.LicenseActive || got.Key != "KEY-1" {
		t.Fatalf("unexpected license: %+v", got)
	}

	// A second writer still believing the license is pending loses.
	if _, err := repo.UpdateStatus(ctx, "l1", domain.LicensePending, domain.LicenseActive, "KEY-2"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	stored, _ := repo.FindByID(ctx, "l1")
	if stored.Key != "KEY-1" {
		t.Fatalf("expected key to stay KEY-1, got %s", stored.Key)
	}

	// An empty key keeps the existing one.
	got, _ = repo.UpdateStatus(ctx, "l1", domain.LicenseActive, domain.LicenseSuspended, "")
	if got.Key != "KEY-1" {
		t.Fatalf("expected key kept, got %s", got.Key)
	}
}

func TestLicenseRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()
	exp := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, &domain.License{ID: "l1", Status: domain.LicenseExpired, ExpiryDate: &exp})

	l, _ := repo.FindByID(ctx, "l1")
	l.Status = domain.LicenseActive
	*l.ExpiryDate = time.Time{}

	again, _ := repo.FindByID(ctx, "l1")
	if again.Status != domain.LicenseExpired || !again.ExpiryDate.Equal(exp) {
		t.Fatalf("store was mutated through a returned copy: %+v", again)
	}
}

func TestLicenseRepository_ListFiltersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, &domain.License{ID: "old", UserID: "u1", Status: domain.LicenseActive, CreatedDate: base})
	_ = repo.Create(ctx, &domain.License{ID: "new", UserID: "u1", Status: domain.LicensePending, CreatedDate: base.Add(time.Hour)})
	_ = repo.Create(ctx, &domain.License{ID: "other", UserID: "u2", Status: domain.LicensePending, CreatedDate: base})

	mine, _ := repo.List(ctx, ports.LicenseFilter{UserID: "u1"})
	if len(mine) != 2 || mine[0].ID != "new" || mine[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", mine)
	}
	pending, _ := repo.List(ctx, ports.LicenseFilter{Status: domain.LicensePending})
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
}

func TestLicenseRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()
	_ = repo.Create(ctx, &domain.License{ID: "l1", Status: domain.LicenseActive})

	if err := repo.Delete(ctx, "l1", domain.LicensePending); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected guarded delete to fail, got %v", err)
	}
	if err := repo.Delete(ctx, "l1", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "l1", ""); !errors.Is(err, domain.ErrLicenseNotFound) {
		t.Fatalf("expected ErrLicenseNotFound, got %v", err)
	}
}

func TestPaymentRepository_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()
	_ = repo.Append(ctx, &domain.Payment{ID: "p1", UserID: "u1", Amount: 10})
	_ = repo.Append(ctx, &domain.Payment{ID: "p2", UserID: "u2", Amount: 20})

	if err := repo.Append(ctx, &domain.Payment{ID: "p1", Amount: 99}); err == nil {
		t.Fatal("expected duplicate id to be refused")
	}
	all, _ := repo.List(ctx, "")
	if len(all) != 2 || all[0].ID != "p2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	p1, _ := repo.FindByID(ctx, "p1")
	if p1.Amount != 10 {
		t.Fatalf("existing entry changed: %+v", p1)
	}
	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestInvestorRequestRepository_MarkSentOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestorRequestRepository()
	_ = repo.Create(ctx, &domain.InvestorRequest{ID: "r1", Email: "a@x.com", Status: domain.InvestorPending})

	req, err := repo.MarkSent(ctx, "r1")
	if err != nil || req.Status != domain.InvestorSent {
		t.Fatalf("expected sent, got %+v (%v)", req, err)
	}
	if _, err := repo.MarkSent(ctx, "r1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := repo.MarkSent(ctx, "nope"); !errors.Is(err, domain.ErrInvestorRequestNotFound) {
		t.Fatalf("expected ErrInvestorRequestNotFound, got %v", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Save(ctx, "s1", &domain.User{ID: "u1"}, time.Minute)
	u, err := store.Load(ctx, "s1")
	if err != nil || u.ID != "u1" {
		t.Fatalf("expected u1, got %+v (%v)", u, err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestSessionStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.Save(ctx, "s1", &domain.User{ID: "u1"}, time.Hour)

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clearing twice must not fail: %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestIdempotencyStore_ReserveCompleteRelease(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()

	if _, claimed, _ := store.Reserve(ctx, "k"); !claimed {
		t.Fatal("expected the first reserve to claim the key")
	}
	if ref, claimed, _ := store.Reserve(ctx, "k"); claimed || ref != "" {
		t.Fatalf("expected in-flight claim, got %q %v", ref, claimed)
	}

	_ = store.Complete(ctx, "k", "lic:pay")
	_ = store.Release(ctx, "k")
	if ref, claimed, _ := store.Reserve(ctx, "k"); claimed || ref != "lic:pay" {
		t.Fatalf("expected completed ref to survive release, got %q %v", ref, claimed)
	}

	_, _, _ = store.Reserve(ctx, "other")
	_ = store.Release(ctx, "other")
	if _, claimed, _ := store.Reserve(ctx, "other"); !claimed {
		t.Fatal("expected a released key to be claimable again")
	}
}

func TestIdempotencyStore_ConcurrentReserveHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, claimed, _ := store.Reserve(ctx, "k"); claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
