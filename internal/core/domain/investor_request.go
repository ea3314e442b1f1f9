package domain

import "time"

type InvestorRequestStatus string

const (
	InvestorPending InvestorRequestStatus = "pending"
	InvestorSent    InvestorRequestStatus = "sent"
)

// InvestorRequest asks for read-only credentials to the live master account.
// It moves one way, pending to sent.
type InvestorRequest struct {
	ID     string                `json:"id"     bson:"_id"`
	Email  string                `json:"email"  bson:"email"`
	Status InvestorRequestStatus `json:"status" bson:"status"`
	Date   time.Time             `json:"date"   bson:"date"`
}

// InvestorCredentials are relayed to the requester and never stored.
type InvestorCredentials struct {
	Login    string
	Password string
}
