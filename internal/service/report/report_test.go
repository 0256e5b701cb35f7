package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

var today = civil.Date{Year: 2025, Month: 4, Day: 14}

func summaryWith(simulated bool, classes ...domain.Classification) *domain.RunSummary {
	s := domain.NewRunSummary("run-1", today, simulated)
	for i, c := range classes {
		s.Entries = append(s.Entries, domain.ObligationReportEntry{
			ObligationID:   string(rune('a' + i)),
			BusinessName:   "Empresa",
			ObligationName: "Retención en la fuente",
			TaxID:          "800111222-3",
			ClientEmail:    "cliente@empresa.co",
			DueDate:        today.AddDays(1),
			DaysUntilDue:   1,
			Classification: c,
		})
		s.Total++
		switch c {
		case domain.ClassificationSent:
			s.Sent++
		case domain.ClassificationError:
			s.Errors++
		}
	}
	return s
}

func TestBuildAdminDigest(t *testing.T) {
	tests := []struct {
		name         string
		summary      *domain.RunSummary
		wantEntries  int
		wantContains []string
		wantStatuses []string
	}{
		{
			name:         "empty production run",
			summary:      summaryWith(false),
			wantEntries:  0,
			wantContains: []string{"No hay impuestos", suffixProduction},
		},
		{
			name:         "empty simulated run",
			summary:      summaryWith(true),
			wantEntries:  0,
			wantContains: []string{"No hay impuestos", suffixSimulation},
		},
		{
			name:         "single entry",
			summary:      summaryWith(false, domain.ClassificationSent),
			wantEntries:  1,
			wantContains: []string{"1 obligación reportada", suffixProduction},
			wantStatuses: []string{StatusSent},
		},
		{
			name:         "mixed production run",
			summary:      summaryWith(false, domain.ClassificationSent, domain.ClassificationError, domain.ClassificationUnreached),
			wantEntries:  3,
			wantContains: []string{"3 obligaciones reportadas", suffixProduction},
			wantStatuses: []string{StatusSent, StatusError, StatusUnreached},
		},
		{
			name:         "simulated run",
			summary:      summaryWith(true, domain.ClassificationSent, domain.ClassificationSent),
			wantEntries:  2,
			wantContains: []string{"2 obligaciones reportadas", suffixSimulation},
			wantStatuses: []string{StatusSimulated, StatusSimulated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest := BuildAdminDigest(tt.summary)

			if digest.Entries == nil {
				t.Fatal("entries must be an empty list, not nil")
			}
			if len(digest.Entries) != tt.wantEntries {
				t.Errorf("got %d entries, want %d", len(digest.Entries), tt.wantEntries)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(digest.Subject, want) {
					t.Errorf("subject %q does not contain %q", digest.Subject, want)
				}
			}
			for i, want := range tt.wantStatuses {
				if digest.Entries[i].Status != want {
					t.Errorf("entry[%d] status = %q, want %q", i, digest.Entries[i].Status, want)
				}
			}
		})
	}
}

func TestBuildCallerResponse(t *testing.T) {
	summary := summaryWith(false, domain.ClassificationSent, domain.ClassificationError)
	summary.EmailsSent = 2
	summary.MessagesSent = 1

	resp := BuildCallerResponse(summary)

	if resp.Total != 2 || resp.Sent != 1 || resp.Errors != 1 {
		t.Errorf("counts = (%d, %d, %d), want (2, 1, 1)", resp.Total, resp.Sent, resp.Errors)
	}
	if resp.EmailsSent != 2 || resp.MessagesSent != 1 {
		t.Errorf("channel counts = (%d, %d), want (2, 1)", resp.EmailsSent, resp.MessagesSent)
	}
	if resp.Message != "✅ Recordatorios enviados: 1, ❌ Errores: 1" {
		t.Errorf("message = %q", resp.Message)
	}
	if !resp.Reporting.Delivered {
		t.Error("expected delivered reporting status by default")
	}

	failed := resp.WithReporting(errors.New("smtp down"))
	if failed.Reporting.Delivered || failed.Reporting.Error != "smtp down" {
		t.Errorf("reporting = %+v", failed.Reporting)
	}
	if failed.Total != resp.Total || failed.Sent != resp.Sent || failed.Errors != resp.Errors {
		t.Error("reporting failure must not change counters")
	}
}

func TestBuildCallerResponse_Empty(t *testing.T) {
	resp := BuildCallerResponse(summaryWith(true))

	if resp.Message != "[simulación] ✅ No hay recordatorios pendientes." {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Entries == nil || resp.SourceFailures == nil {
		t.Error("entries and source failures must serialize as empty lists")
	}
}

func TestReporterDeliver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := domain.NewMockAdminNotifier(ctrl)
	summary := summaryWith(false)

	notifier.EXPECT().
		SendDigest(gomock.Any(), "admin@cala.com", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, subject string, entries []domain.DigestEntry) error {
			if !strings.Contains(subject, "No hay impuestos") {
				t.Errorf("unexpected subject %q", subject)
			}
			if len(entries) != 0 {
				t.Errorf("expected no entries, got %d", len(entries))
			}
			return nil
		}).
		Times(1)

	if err := NewReporter(notifier).Deliver(context.Background(), "admin@cala.com", summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReporterDeliver_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := domain.NewMockAdminNotifier(ctrl)
	expectedErr := errors.New("smtp down")

	notifier.EXPECT().
		SendDigest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(expectedErr)

	err := NewReporter(notifier).Deliver(context.Background(), "admin@cala.com", summaryWith(false, domain.ClassificationSent))
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}
}
