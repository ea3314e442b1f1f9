// Package seed loads the demo data the portal starts with.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

// Target is the set of stores the demo data is written to.
type Target struct {
	Users    ports.UserRepository
	Licenses ports.LicenseRepository
	Payments ports.PaymentRepository
	Tickets  ports.TicketRepository
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func Users() []domain.User {
	return []domain.User{
		{ID: "1", Name: "Demo Trader", Email: "user@demo.com", Role: domain.RoleUser},
		{ID: "2", Name: "System Admin", Email: "admin@tradeloom.com", Role: domain.RoleAdmin},
	}
}

func Licenses() []domain.License {
	expiry := day(2025, time.May, 10)
	return []domain.License{
		{
			ID:           "1",
			UserID:       "1",
			Key:          "TRADL-A7K9-M2P3-X8Q1-B5N4",
			MT5AccountID: "8829102",
			BrokerServer: "Exness-MT5Real",
			Status:       domain.LicenseActive,
			CreatedDate:  day(2025, time.November, 15),
		},
		{
			ID:           "2",
			UserID:       "1",
			Key:          "TRADL-X9L2-P4M1-Q5Z9-R8T2",
			MT5AccountID: "1029384",
			BrokerServer: "ICMarkets-SC",
			Status:       domain.LicenseExpired,
			CreatedDate:  day(2024, time.May, 10),
			ExpiryDate:   &expiry,
		},
	}
}

// Payments are listed oldest first so appending keeps ledger order.
func Payments() []domain.Payment {
	return []domain.Payment{
		{
			ID:            "2",
			UserID:        "1",
			TransactionID: "pay_J291k02931",
			Date:          day(2024, time.May, 10),
			Amount:        25000,
			Product:       "AlgoPilot License",
			Status:        domain.PaymentSuccess,
		},
		{
			ID:            "1",
			UserID:        "1",
			TransactionID: "pay_H92k391l2k",
			Date:          day(2025, time.November, 15),
			Amount:        25000,
			Product:       "AlgoPilot License",
			Status:        domain.PaymentSuccess,
		},
	}
}

func Tickets() []domain.SupportTicket {
	return []domain.SupportTicket{
		{ID: "101", UserID: "1", Subject: "Setup assistance needed", Status: domain.TicketResolved, Date: day(2025, time.November, 16)},
		{ID: "104", UserID: "1", Subject: "VPS Configuration", Status: domain.TicketOpen, Date: day(2026, time.February, 10)},
	}
}

// Apply writes the demo data unless the user store already holds users. It
// reports whether anything was written.
func Apply(ctx context.Context, t Target) (bool, error) {
	existing, err := t.Users.List(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list users: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, u := range Users() {
		if err := t.Users.Create(ctx, &u); err != nil {
			return false, fmt.Errorf("seed: user %s: %w", u.ID, err)
		}
	}
	for _, l := range Licenses() {
		if err := t.Licenses.Create(ctx, &l); err != nil {
			return false, fmt.Errorf("seed: license %s: %w", l.ID, err)
		}
	}
	for _, p := range Payments() {
		if err := t.Payments.Append(ctx, &p); err != nil {
			return false, fmt.Errorf("seed: payment %s: %w", p.ID, err)
		}
	}
	for _, tk := range Tickets() {
		if err := t.Tickets.Create(ctx, &tk); err != nil {
			return false, fmt.Errorf("seed: ticket %s: %w", tk.ID, err)
		}
	}
	return true, nil
}
