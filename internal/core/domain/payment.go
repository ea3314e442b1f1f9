package domain

import "time"

// PaymentStatus is the settlement state of a ledger entry.
type PaymentStatus string

// Only PaymentSuccess is ever produced. Pending and failed are kept so that
// seeded or imported ledgers using them still decode.
const (
	PaymentSuccess PaymentStatus = "success"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

const ProductLicenseRequest = "New License Request"

// Payment is an append-only ledger entry. Amount is in whole rupees.
type Payment struct {
	ID            string        `json:"id"             bson:"_id"`
	UserID        string        `json:"user_id"        bson:"user_id"`
	TransactionID string        `json:"transaction_id" bson:"transaction_id"`
	Date          time.Time     `json:"date"           bson:"date"`
	Amount        int64         `json:"amount"         bson:"amount"`
	Product       string        `json:"product"        bson:"product"`
	Status        PaymentStatus `json:"status"         bson:"status"`
}

// TotalRevenue folds the amounts of payments.
func TotalRevenue(payments []Payment) int64 {
	var total int64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}
