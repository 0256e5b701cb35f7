package domain

import (
	"context"

	"cloud.google.com/go/civil"
)

//go:generate mockgen -source=ports.go -destination=mock.go -package=domain

type ObligationSource interface {
	// FindDueOn returns obligations whose due date equals date exactly.
	// Failures wrap ErrSourceUnavailable.
	FindDueOn(ctx context.Context, date civil.Date) ([]TaxObligation, error)
}

// ObligationStore persists imported obligations. Failures wrap
// ErrStoreWriteFailed.
type ObligationStore interface {
	Create(ctx context.Context, obligation TaxObligation) error
}

type EmailSender interface {
	Send(ctx context.Context, recipient string, obligation TaxObligation) error
}

type MessageSender interface {
	Send(ctx context.Context, recipient, text string) error
}

// DigestEntry is one row of the admin digest.
type DigestEntry struct {
	BusinessName   string     `json:"business_name"`
	ObligationName string     `json:"obligation_name"`
	TaxID          string     `json:"tax_id"`
	ClientEmail    string     `json:"client_email"`
	DueDate        civil.Date `json:"due_date"`
	DaysUntilDue   int        `json:"days_until_due"`
	Status         string     `json:"status"`
}

type AdminNotifier interface {
	SendDigest(ctx context.Context, recipient, subject string, entries []DigestEntry) error
}

// RunGuard prevents overlapping runs for the same key. Acquire returns
// ErrRunInProgress when the key is already held.
type RunGuard interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}
