package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

func TestCreateLicenseChargesAndFilesPending(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	other := p.login(t, "other@x.com")

	var slept time.Duration
	p.license.sleep = func(d time.Duration) { slept = d }

	res := p.requestLicense(t, trader)

	if slept != time.Second {
		t.Fatalf("expected simulated processing delay of 1s, got %s", slept)
	}
	if res.License.Status != domain.LicensePending || res.License.Key != domain.PendingKey {
		t.Fatalf("expected pending placeholder license, got %+v", res.License)
	}
	if res.Payment.Amount != DefaultLicensePrice || res.Payment.Status != domain.PaymentSuccess {
		t.Fatalf("expected success payment of %d, got %+v", DefaultLicensePrice, res.Payment)
	}
	if res.Payment.Product != domain.ProductLicenseRequest {
		t.Fatalf("expected product %q, got %q", domain.ProductLicenseRequest, res.Payment.Product)
	}

	mine, _ := p.license.ListForUser(ctx, trader.ID)
	theirs, _ := p.license.ListForUser(ctx, other.ID)
	if len(mine) != 1 || len(theirs) != 0 {
		t.Fatalf("expected license scoped to owner, got %d/%d", len(mine), len(theirs))
	}
	myPayments, _ := p.ledger.ListForUser(ctx, trader.ID)
	theirPayments, _ := p.ledger.ListForUser(ctx, other.ID)
	if len(myPayments) != 1 || len(theirPayments) != 0 {
		t.Fatalf("expected payment scoped to owner, got %d/%d", len(myPayments), len(theirPayments))
	}
}

func TestCreateLicenseValidation(t *testing.T) {
	p := newPortal(t)
	trader := p.login(t, "trader@x.com")

	tests := []struct {
		name string
		in   ports.CreateLicenseInput
		want error
	}{
		{"missing account", ports.CreateLicenseInput{UserID: trader.ID, BrokerServer: "Exness"}, domain.ErrInvalidInput},
		{"blank broker", ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "1", BrokerServer: "  "}, domain.ErrInvalidInput},
		{"unknown user", ports.CreateLicenseInput{UserID: "ghost", MT5AccountID: "1", BrokerServer: "Exness"}, domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.license.Create(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	payments, _ := p.payments.List(context.Background(), "")
	if len(payments) != 0 {
		t.Fatalf("expected no charge for rejected input, got %d payments", len(payments))
	}
}

func TestCreateLicenseCommitsAfterCallerLeaves(t *testing.T) {
	p := newPortal(t)
	trader := p.login(t, "trader@x.com")
	ctx, cancel := context.WithCancel(context.Background())
	p.license.sleep = func(time.Duration) { cancel() }

	res, err := p.license.Create(ctx, ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "1", BrokerServer: "Exness"})
	if err != nil {
		t.Fatalf("expected commit despite cancellation, got %v", err)
	}
	if _, err := p.licenses.FindByID(context.Background(), res.License.ID); err != nil {
		t.Fatalf("expected license to be stored, got %v", err)
	}
}

func TestCreateLicenseIdempotentReplay(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	in := ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "123", BrokerServer: "Exness", IdempotencyKey: "req-1"}

	first, err := p.license.Create(ctx, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := p.license.Create(ctx, in)
	if err != nil {
		t.Fatalf("replayed create: %v", err)
	}

	if !second.Replayed || first.Replayed {
		t.Fatalf("expected only the second call to be a replay")
	}
	if second.License.ID != first.License.ID || second.Payment.ID != first.Payment.ID {
		t.Fatal("expected replay to return the original license and payment")
	}
	payments, _ := p.payments.List(ctx, trader.ID)
	if len(payments) != 1 {
		t.Fatalf("expected a single charge, got %d", len(payments))
	}
}

func TestCreateLicenseWithBrokenIdempotencyStore(t *testing.T) {
	p := newPortalWithIdempotency(t, brokenIdempotencyStore{})
	trader := p.login(t, "trader@x.com")

	res, err := p.license.Create(context.Background(), ports.CreateLicenseInput{
		UserID: trader.ID, MT5AccountID: "1", BrokerServer: "Exness", IdempotencyKey: "req-1",
	})
	if err != nil {
		t.Fatalf("expected request to proceed, got %v", err)
	}
	if res.Replayed {
		t.Fatal("expected a fresh request")
	}
}

func TestCreateLicenseIdempotencyKeyIsPerUser(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	other := p.login(t, "other@x.com")

	mine, err := p.license.Create(ctx, ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "1", BrokerServer: "Exness", IdempotencyKey: "shared"})
	if err != nil {
		t.Fatalf("trader create: %v", err)
	}
	theirs, err := p.license.Create(ctx, ports.CreateLicenseInput{UserID: other.ID, MT5AccountID: "2", BrokerServer: "Exness", IdempotencyKey: "shared"})
	if err != nil {
		t.Fatalf("other create: %v", err)
	}

	if theirs.Replayed {
		t.Fatal("expected a fresh request for the second account")
	}
	if theirs.License.ID == mine.License.ID || theirs.Payment.ID == mine.Payment.ID {
		t.Fatal("second account received the first account's license or payment")
	}
	if theirs.License.UserID != other.ID || theirs.Payment.UserID != other.ID {
		t.Fatalf("expected records owned by %s, got %+v / %+v", other.ID, theirs.License, theirs.Payment)
	}
	payments, _ := p.payments.List(ctx, other.ID)
	if len(payments) != 1 {
		t.Fatalf("expected the second account to be charged once, got %d", len(payments))
	}
}

func TestCreateLicenseRetryDuringProcessingChargesOnce(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	in := ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "123", BrokerServer: "Exness", IdempotencyKey: "retry-1"}

	entered := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	p.license.sleep = func(time.Duration) {
		once.Do(func() { close(entered) })
		<-proceed
	}

	type outcome struct {
		res *ports.LicenseRequestResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.license.Create(ctx, in)
		done <- outcome{res, err}
	}()

	<-entered
	if _, err := p.license.Create(ctx, in); !errors.Is(err, domain.ErrIdempotencyKeyUsed) {
		t.Fatalf("expected in-flight retry to be refused, got %v", err)
	}
	close(proceed)

	first := <-done
	if first.err != nil {
		t.Fatalf("first create: %v", first.err)
	}
	again, err := p.license.Create(ctx, in)
	if err != nil {
		t.Fatalf("retry after completion: %v", err)
	}
	if !again.Replayed || again.License.ID != first.res.License.ID {
		t.Fatal("expected the completed request to be replayed")
	}

	payments, _ := p.payments.List(ctx, trader.ID)
	licenses, _ := p.license.ListForUser(ctx, trader.ID)
	if len(payments) != 1 || len(licenses) != 1 {
		t.Fatalf("expected one charge and one license, got %d and %d", len(payments), len(licenses))
	}
}

func TestConcurrentCreateWithSameKeyHasOneWinner(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	in := ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "123", BrokerServer: "Exness", IdempotencyKey: "burst"}

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.license.Create(ctx, in)
			if err != nil {
				if !errors.Is(err, domain.ErrIdempotencyKeyUsed) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !res.Replayed {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fresh != 1 {
		t.Fatalf("expected exactly one request to be processed, got %d", fresh)
	}
	payments, _ := p.payments.List(ctx, trader.ID)
	if len(payments) != 1 {
		t.Fatalf("expected a single charge, got %d", len(payments))
	}
}

func TestCreateLicenseWithdrawnWhenChargeFails(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	p.license.ledger = failingLedger{p.ledger}
	in := ports.CreateLicenseInput{UserID: trader.ID, MT5AccountID: "123", BrokerServer: "Exness", IdempotencyKey: "req-1"}

	if _, err := p.license.Create(ctx, in); err == nil {
		t.Fatal("expected the failed charge to be reported")
	}
	left, _ := p.license.ListForUser(ctx, trader.ID)
	if len(left) != 0 {
		t.Fatalf("expected no unpaid license to remain, got %+v", left)
	}

	p.license.ledger = p.ledger
	res, err := p.license.Create(ctx, in)
	if err != nil {
		t.Fatalf("retry after failed charge: %v", err)
	}
	if res.Replayed {
		t.Fatal("expected the retry to run since the key was released")
	}
}

func TestApproveIssuesKeyAndNotifies(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	res := p.requestLicense(t, trader)

	lic, err := p.license.Approve(ctx, admin, res.License.ID, " KEY-1 ")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if lic.Status != domain.LicenseActive || lic.Key != "KEY-1" {
		t.Fatalf("expected active KEY-1, got %s %s", lic.Status, lic.Key)
	}

	pending, _ := p.license.ListAll(ctx, admin, "pending")
	if len(pending) != 0 {
		t.Fatalf("expected empty pending filter, got %d", len(pending))
	}

	sent := p.queue.all()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].Kind != ports.NotifyLicenseIssued || sent[0].Recipient != "trader@x.com" || sent[0].Fields["license_key"] != "KEY-1" {
		t.Fatalf("unexpected notification: %+v", sent[0])
	}
}

func TestApproveRejectsRepeatAndBlankKey(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	res := p.requestLicense(t, trader)

	if _, err := p.license.Approve(ctx, admin, res.License.ID, "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank key, got %v", err)
	}
	if _, err := p.license.Approve(ctx, admin, res.License.ID, "KEY-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := p.license.Approve(ctx, admin, res.License.ID, "KEY-2"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on repeat approve, got %v", err)
	}

	lic, _ := p.licenses.FindByID(ctx, res.License.ID)
	if lic.Key != "KEY-1" {
		t.Fatalf("expected key to stay KEY-1, got %s", lic.Key)
	}
	if _, err := p.license.Approve(ctx, admin, "missing", "KEY-3"); !errors.Is(err, domain.ErrLicenseNotFound) {
		t.Fatalf("expected ErrLicenseNotFound, got %v", err)
	}
}

func TestConcurrentApproveHasOneWinner(t *testing.T) {
	p := newPortal(t)
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	res := p.requestLicense(t, trader)

	const racers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.license.Approve(context.Background(), admin, res.License.ID, "KEY-1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful approve, got %d", wins)
	}
}

func TestSuspendReinstateRoundTrip(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	res := p.requestLicense(t, trader)

	if _, err := p.license.Suspend(ctx, admin, res.License.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected pending license to refuse suspend, got %v", err)
	}
	if _, err := p.license.Approve(ctx, admin, res.License.ID, "KEY-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	lic, err := p.license.Suspend(ctx, admin, res.License.ID)
	if err != nil || lic.Status != domain.LicenseSuspended {
		t.Fatalf("expected suspended, got %v %v", lic, err)
	}
	lic, err = p.license.Reinstate(ctx, admin, res.License.ID)
	if err != nil || lic.Status != domain.LicenseActive {
		t.Fatalf("expected active, got %v %v", lic, err)
	}
	if lic.Key != "KEY-1" {
		t.Fatalf("expected key preserved, got %s", lic.Key)
	}
	if _, err := p.license.Reinstate(ctx, admin, res.License.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected active license to refuse reinstate, got %v", err)
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	first := p.requestLicense(t, trader)
	second := p.requestLicense(t, trader)

	if err := p.license.Reject(ctx, admin, first.License.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := p.licenses.FindByID(ctx, first.License.ID); !errors.Is(err, domain.ErrLicenseNotFound) {
		t.Fatalf("expected rejected license to be gone, got %v", err)
	}

	if _, err := p.license.Approve(ctx, admin, second.License.ID, "KEY-2"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := p.license.Reject(ctx, admin, second.License.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected active license to refuse reject, got %v", err)
	}

	payments, _ := p.payments.List(ctx, trader.ID)
	if len(payments) != 2 {
		t.Fatalf("expected ledger untouched by reject, got %d entries", len(payments))
	}
}

func TestDeleteFromAnyStatus(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	pending := p.requestLicense(t, trader)
	active := p.requestLicense(t, trader)
	if _, err := p.license.Approve(ctx, admin, active.License.ID, "KEY-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	for _, id := range []string{pending.License.ID, active.License.ID} {
		if err := p.license.Delete(ctx, admin, id); err != nil {
			t.Fatalf("delete %s: %v", id, err)
		}
	}
	left, _ := p.license.ListForUser(ctx, trader.ID)
	if len(left) != 0 {
		t.Fatalf("expected no licenses left, got %d", len(left))
	}
	if err := p.license.Delete(ctx, admin, pending.License.ID); !errors.Is(err, domain.ErrLicenseNotFound) {
		t.Fatalf("expected ErrLicenseNotFound, got %v", err)
	}
}

func TestAdminOperationsForbiddenForUsers(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	res := p.requestLicense(t, trader)
	id := res.License.ID

	checks := map[string]func() error{
		"approve":   func() error { _, err := p.license.Approve(ctx, trader, id, "KEY"); return err },
		"reject":    func() error { return p.license.Reject(ctx, trader, id) },
		"suspend":   func() error { _, err := p.license.Suspend(ctx, trader, id); return err },
		"reinstate": func() error { _, err := p.license.Reinstate(ctx, trader, id); return err },
		"delete":    func() error { return p.license.Delete(ctx, trader, id) },
		"list all":  func() error { _, err := p.license.ListAll(ctx, trader, ""); return err },
		"anonymous": func() error { _, err := p.license.ListAll(ctx, nil, ""); return err },
	}
	for name, call := range checks {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}

	lic, _ := p.licenses.FindByID(ctx, id)
	if lic.Status != domain.LicensePending {
		t.Fatalf("expected license untouched, got %s", lic.Status)
	}
}

func TestListAllFilters(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	trader := p.login(t, "trader@x.com")
	admin := p.login(t, "boss@admin.co")
	p.requestLicense(t, trader)
	active := p.requestLicense(t, trader)
	if _, err := p.license.Approve(ctx, admin, active.License.ID, "KEY-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	for filter, want := range map[string]int{"": 2, "all": 2, "pending": 1, "active": 1, "suspended": 0} {
		got, err := p.license.ListAll(ctx, admin, filter)
		if err != nil {
			t.Fatalf("filter %q: %v", filter, err)
		}
		if len(got) != want {
			t.Fatalf("filter %q: expected %d, got %d", filter, want, len(got))
		}
	}
	if _, err := p.license.ListAll(ctx, admin, "rejected"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown filter, got %v", err)
	}
}
