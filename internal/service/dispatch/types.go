package dispatch

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

// DefaultLookaheadDays notifies obligations due tomorrow.
var DefaultLookaheadDays = []int{1}

// Settings is the engine configuration fixed at construction.
type Settings struct {
	AdminRecipient string
	LookaheadDays  []int
	Simulate       bool
	Location       *time.Location
}

// RunRequest carries per-run overrides. Nil or empty fields fall back to Settings.
type RunRequest struct {
	LookaheadDays []int
	Simulate      *bool
	Date          *civil.Date
}

type Result struct {
	Summary *domain.RunSummary
	// ReportingError is set when the admin digest could not be delivered.
	// It never changes the summary counters.
	ReportingError error
}

// Reporter delivers the single admin digest of a run.
type Reporter interface {
	Deliver(ctx context.Context, recipient string, summary *domain.RunSummary) error
}

type target struct {
	date          civil.Date
	lookaheadDays []int
}
