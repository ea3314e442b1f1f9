package domain

import "time"

// LicenseStatus represents the lifecycle state of a license.
type LicenseStatus string

const (
	LicensePending   LicenseStatus = "pending"
	LicenseActive    LicenseStatus = "active"
	LicenseSuspended LicenseStatus = "suspended"
	LicenseExpired   LicenseStatus = "expired"
)

// PendingKey is the display key of a license that has not been issued yet.
const PendingKey = "PENDING-APPROVAL"

// licenseTransitions defines the allowed state machine transitions. Expired is
// only reachable through seed data. Deletion is not a status.
var licenseTransitions = map[LicenseStatus][]LicenseStatus{
	LicensePending:   {LicenseActive},
	LicenseActive:    {LicenseSuspended},
	LicenseSuspended: {LicenseActive},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	for _, allowed := range licenseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s LicenseStatus) Valid() bool {
	switch s {
	case LicensePending, LicenseActive, LicenseSuspended, LicenseExpired:
		return true
	}
	return false
}

// ParseLicenseFilter turns a list filter into a status. An empty string and
// "all" both mean no filter and return ok with an empty status.
func ParseLicenseFilter(raw string) (LicenseStatus, bool) {
	if raw == "" || raw == "all" {
		return "", true
	}
	s := LicenseStatus(raw)
	return s, s.Valid()
}

// License grants one user access to the trading product on one MT5 account.
type License struct {
	ID           string        `json:"id"             bson:"_id"`
	UserID       string        `json:"user_id"        bson:"user_id"`
	Key          string        `json:"key"            bson:"key"`
	MT5AccountID string        `json:"mt5_account_id" bson:"mt5_account_id"`
	BrokerServer string        `json:"broker_server"  bson:"broker_server"`
	Status       LicenseStatus `json:"status"         bson:"status"`
	CreatedDate  time.Time     `json:"created_date"   bson:"created_date"`
	ExpiryDate   *time.Time    `json:"expiry_date"    bson:"expiry_date"` // nil never expires
}

// CountLicenses returns how many of licenses are in status s.
func CountLicenses(licenses []License, s LicenseStatus) int {
	n := 0
	for _, l := range licenses {
		if l.Status == s {
			n++
		}
	}
	return n
}
