package ports

import "context"

type NotificationKind string

const (
	NotifyLicenseIssued       NotificationKind = "license_issued"
	NotifyInvestorCredentials NotificationKind = "investor_credentials"
)

// Notification is an outbound message to a portal user or visitor. Fields
// whose name is listed in Secret must never be logged in clear.
type Notification struct {
	Kind      NotificationKind
	Recipient string
	Subject   string
	Fields    map[string]string
	Secret    []string
}

// Notifier delivers a single notification.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationQueue accepts notifications for asynchronous delivery.
type NotificationQueue interface {
	Enqueue(n Notification)
}
