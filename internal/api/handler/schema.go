package handler

import (
	"time"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

// --- Requests ---

type loginRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type createLicenseRequest struct {
	MT5AccountID string `json:"mt5_account_id" validate:"required,max=32"`
	BrokerServer string `json:"broker_server"  validate:"required,max=128"`
}

type approveLicenseRequest struct {
	Key string `json:"key" validate:"required,max=64"`
}

type investorSubmitRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type investorResolveRequest struct {
	Login    string `json:"investor_login"    validate:"required,max=64"`
	Password string `json:"investor_password" validate:"required,max=128"`
}

// --- Responses ---

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type licenseRequestResponse struct {
	License  *domain.License `json:"license"`
	Payment  *domain.Payment `json:"payment"`
	Replayed bool            `json:"replayed,omitempty"`
}

type userOverviewResponse struct {
	User           *domain.User     `json:"user"`
	ActiveLicenses int              `json:"active_licenses"`
	TotalLicenses  int              `json:"total_licenses"`
	TotalSpent     int64            `json:"total_spent"`
	RecentPayments []domain.Payment `json:"recent_payments"`
}

type adminOverviewResponse struct {
	TotalRevenue            int64 `json:"total_revenue"`
	PendingLicenses         int   `json:"pending_licenses"`
	PendingInvestorRequests int   `json:"pending_investor_requests"`
	TotalUsers              int   `json:"total_users"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func toLicenseRequestResponse(res *ports.LicenseRequestResult) licenseRequestResponse {
	return licenseRequestResponse{License: res.License, Payment: res.Payment, Replayed: res.Replayed}
}

func toAdminOverviewResponse(ov *ports.AdminOverview) adminOverviewResponse {
	return adminOverviewResponse{
		TotalRevenue:            ov.TotalRevenue,
		PendingLicenses:         ov.PendingLicenses,
		PendingInvestorRequests: ov.PendingInvestorRequests,
		TotalUsers:              ov.TotalUsers,
	}
}
