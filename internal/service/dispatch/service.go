package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/planner"
)

const (
	runGuardKeyPrefix = "dispatch"
	skipReasonAborted = "processing aborted"
)

type Service struct {
	source          domain.ObligationSource
	emailSender     domain.EmailSender
	messageSender   domain.MessageSender
	planner         *planner.Planner
	reporter        Reporter
	runGuard        domain.RunGuard
	dispatchMetrics *metrics.DispatchMetrics
	settings        Settings

	now      func() time.Time
	newRunID func() string
}

func NewService(
	source domain.ObligationSource,
	emailSender domain.EmailSender,
	messageSender domain.MessageSender,
	notificationPlanner *planner.Planner,
	reporter Reporter,
	runGuard domain.RunGuard,
	dispatchMetrics *metrics.DispatchMetrics,
	settings Settings,
) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if len(settings.LookaheadDays) == 0 {
		settings.LookaheadDays = DefaultLookaheadDays
	}

	return &Service{
		source:          source,
		emailSender:     emailSender,
		messageSender:   messageSender,
		planner:         notificationPlanner,
		reporter:        reporter,
		runGuard:        runGuard,
		dispatchMetrics: dispatchMetrics,
		settings:        settings,
		now:             time.Now,
		newRunID:        uuid.NewString,
	}
}

// Run executes one dispatch run. The returned error is reserved for failures
// outside the per-obligation boundary; everything else is reported in the
// summary.
func (s *Service) Run(ctx context.Context, req RunRequest) (*Result, error) {
	if s.settings.AdminRecipient == "" {
		return nil, domain.ErrNoAdminRecipient
	}

	lookahead := req.LookaheadDays
	if len(lookahead) == 0 {
		lookahead = s.settings.LookaheadDays
	}
	lookahead, err := normalizeLookahead(lookahead)
	if err != nil {
		return nil, err
	}

	simulate := s.settings.Simulate
	if req.Simulate != nil {
		simulate = *req.Simulate
	}

	today := civil.DateOf(s.now().In(s.settings.Location))
	targets := targetDates(today, lookahead, req.Date)

	if req.Date != nil && len(lookahead) > 1 {
		slog.WarnContext(ctx, "explicit date collapses lookahead values into one query",
			slog.String("date", req.Date.String()),
			slog.Any("lookahead_days", lookahead),
		)
	}

	if s.runGuard != nil {
		release, err := s.runGuard.Acquire(ctx, guardKey(targets, simulate))
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.WarnContext(ctx, "failed to release run guard",
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	runID := s.newRunID()
	startTime := time.Now()

	ctx, span := tracing.StartRunSpan(ctx, runID, today, simulate)
	defer span.End()

	slog.InfoContext(ctx, "dispatch run started",
		slog.String("run_id", runID),
		slog.String("today", today.String()),
		slog.Any("lookahead_days", lookahead),
		slog.Bool("simulate", simulate),
	)

	summary := domain.NewRunSummary(runID, today, simulate)
	seen := make(map[string]struct{})

	for _, t := range targets {
		obligations, err := s.findDueOn(ctx, t.date)
		if err != nil {
			slog.ErrorContext(ctx, "failed to query obligations",
				slog.String("run_id", runID),
				slog.String("due_date", t.date.String()),
				slog.String("error", err.Error()),
			)
			summary.RecordSourceFailure(t.date, t.lookaheadDays, err)
			if s.dispatchMetrics != nil {
				s.dispatchMetrics.RecordSourceFailure(ctx)
			}
			continue
		}

		slog.DebugContext(ctx, "fetched obligations",
			slog.String("due_date", t.date.String()),
			slog.Int("count", len(obligations)),
		)

		for _, o := range obligations {
			if o.DueDate != t.date {
				slog.WarnContext(ctx, "ignoring obligation outside target date",
					slog.String("obligation_id", o.ID),
					slog.String("due_date", o.DueDate.String()),
					slog.String("target_date", t.date.String()),
				)
				continue
			}
			if _, ok := seen[o.ID]; ok {
				slog.DebugContext(ctx, "skipping obligation already reported in this run",
					slog.String("obligation_id", o.ID),
				)
				continue
			}
			seen[o.ID] = struct{}{}

			s.recordObligation(ctx, summary, o, today, simulate)
		}
	}

	result := &Result{Summary: summary}

	if err := s.deliverDigest(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "failed to deliver admin digest",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		result.ReportingError = fmt.Errorf("%w: %w", domain.ErrReportingFailed, err)
		if s.dispatchMetrics != nil {
			s.dispatchMetrics.RecordDigestDelivery(ctx, "failed")
		}
	} else if s.dispatchMetrics != nil {
		s.dispatchMetrics.RecordDigestDelivery(ctx, "delivered")
	}

	duration := time.Since(startTime)
	if s.dispatchMetrics != nil {
		s.dispatchMetrics.RecordRunDuration(ctx, simulate, duration)
	}
	tracing.RecordRunResult(span, summary.Total, summary.Sent, summary.Errors, len(summary.SourceFailures), result.ReportingError)

	slog.InfoContext(ctx, "dispatch run completed",
		slog.String("run_id", runID),
		slog.Int("total", summary.Total),
		slog.Int("sent", summary.Sent),
		slog.Int("errors", summary.Errors),
		slog.Int("emails_sent", summary.EmailsSent),
		slog.Int("messages_sent", summary.MessagesSent),
		slog.Int("source_failures", len(summary.SourceFailures)),
		slog.Bool("reporting_failed", result.ReportingError != nil),
		slog.Duration("duration", duration),
	)

	return result, nil
}

// deliverDigest turns a panic while composing or sending the digest into an
// error so the finished summary still reaches the caller.
func (s *Service) deliverDigest(ctx context.Context, summary *domain.RunSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while delivering admin digest: %v", r)
		}
	}()

	return s.reporter.Deliver(ctx, s.settings.AdminRecipient, summary)
}

func (s *Service) findDueOn(ctx context.Context, date civil.Date) ([]domain.TaxObligation, error) {
	ctx, span := tracing.StartSourceQuerySpan(ctx, date)
	defer span.End()

	obligations, err := s.source.FindDueOn(ctx, date)
	tracing.RecordSpanError(span, err)
	if err != nil && !errors.Is(err, domain.ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return obligations, err
}

func (s *Service) recordObligation(ctx context.Context, summary *domain.RunSummary, o domain.TaxObligation, today civil.Date, simulate bool) {
	ctx, span := tracing.StartObligationSpan(ctx, o.ID, o.DaysUntilDue(today))
	defer span.End()

	entry := s.processObligation(ctx, o, today, simulate)
	summary.Record(entry)

	recorded := summary.Entries[len(summary.Entries)-1]
	tracing.RecordObligationResult(span, recorded.Classification.String(), len(recorded.Attempts))
	if s.dispatchMetrics != nil {
		s.dispatchMetrics.RecordObligationProcessed(ctx, recorded.Classification.String(), simulate)
	}

	slog.InfoContext(ctx, "obligation processed",
		slog.String("obligation_id", o.ID),
		slog.String("business", o.BusinessName),
		slog.String("classification", recorded.Classification.String()),
		slog.Int("days_until_due", recorded.DaysUntilDue),
	)
}

// processObligation never lets a panic escape; it is recorded on the entry.
func (s *Service) processObligation(ctx context.Context, o domain.TaxObligation, today civil.Date, simulate bool) (entry domain.ObligationReportEntry) {
	entry = domain.NewObligationReportEntry(o, today)

	defer func() {
		if r := recover(); r != nil {
			entry.Error = fmt.Sprintf("panic while processing obligation: %v", r)
			for i := range entry.Attempts {
				if entry.Attempts[i].IsPlanned() {
					entry.Attempts[i].MarkSkipped(skipReasonAborted)
				}
			}
			slog.ErrorContext(ctx, "recovered panic while processing obligation",
				slog.String("obligation_id", o.ID),
				slog.Any("panic", r),
			)
		}
	}()

	entry.Attempts = s.planner.Plan(o, entry.DaysUntilDue, simulate)

	for i := range entry.Attempts {
		a := &entry.Attempts[i]
		if a.IsPlanned() {
			if err := s.send(ctx, o, a); err != nil {
				slog.WarnContext(ctx, "notification attempt failed",
					slog.String("obligation_id", o.ID),
					slog.String("channel", a.Channel.String()),
					slog.String("role", a.Role.String()),
					slog.String("error", err.Error()),
				)
				a.MarkFailed(err)
			} else {
				a.MarkSent()
			}
		}

		if s.dispatchMetrics != nil {
			s.dispatchMetrics.RecordAttempt(ctx, a.Channel.String(), a.Outcome.String())
		}
	}

	return entry
}

func (s *Service) send(ctx context.Context, o domain.TaxObligation, a *domain.NotificationAttempt) error {
	switch a.Channel {
	case domain.ChannelEmail:
		return s.emailSender.Send(ctx, a.Recipient, o)
	case domain.ChannelMessage:
		return s.messageSender.Send(ctx, a.Recipient, a.Text)
	default:
		return fmt.Errorf("unsupported channel %q", a.Channel)
	}
}

func normalizeLookahead(days []int) ([]int, error) {
	out := slices.Clone(days)
	for _, d := range out {
		if d < 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidLookahead, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// targetDates maps each lookahead value to its due date. lookahead must be
// sorted and free of duplicates, so every date is distinct. An explicit date
// replaces every computed date with a single query.
func targetDates(today civil.Date, lookahead []int, explicit *civil.Date) []target {
	if explicit != nil {
		return []target{{date: *explicit, lookaheadDays: lookahead}}
	}

	targets := make([]target, 0, len(lookahead))
	for _, d := range lookahead {
		targets = append(targets, target{date: today.AddDays(d), lookaheadDays: []int{d}})
	}
	return targets
}

func guardKey(targets []target, simulate bool) string {
	parts := make([]string, 0, len(targets)+2)
	parts = append(parts, runGuardKeyPrefix, "mode="+strconv.FormatBool(simulate))
	for _, t := range targets {
		parts = append(parts, t.date.String())
	}
	return strings.Join(parts, ":")
}
