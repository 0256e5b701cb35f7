package report

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/tracing"
)

type Reporter struct {
	notifier domain.AdminNotifier
}

func NewReporter(notifier domain.AdminNotifier) *Reporter {
	return &Reporter{
		notifier: notifier,
	}
}

// Deliver sends exactly one admin digest for the run.
func (r *Reporter) Deliver(ctx context.Context, recipient string, summary *domain.RunSummary) error {
	digest := BuildAdminDigest(summary)

	ctx, span := tracing.StartDigestSpan(ctx, len(digest.Entries))
	defer span.End()

	slog.DebugContext(ctx, "sending admin digest",
		slog.String("run_id", summary.RunID),
		slog.String("subject", digest.Subject),
		slog.Int("entries", len(digest.Entries)),
	)

	err := r.notifier.SendDigest(ctx, recipient, digest.Subject, digest.Entries)
	tracing.RecordSpanError(span, err)

	return err
}
