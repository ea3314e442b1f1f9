package domain

import "time"

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// SupportTicket is read-only seed data.
type SupportTicket struct {
	ID      string       `json:"id"                bson:"_id"`
	UserID  string       `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Subject string       `json:"subject"           bson:"subject"`
	Status  TicketStatus `json:"status"            bson:"status"`
	Date    time.Time    `json:"date"              bson:"date"`
}
