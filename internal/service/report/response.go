package report

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

// CallerResponse is the structured result returned to whoever triggered the run.
type CallerResponse struct {
	Message        string                         `json:"message"`
	RunID          string                         `json:"run_id"`
	Today          civil.Date                     `json:"today"`
	Simulated      bool                           `json:"simulated"`
	Total          int                            `json:"total"`
	Sent           int                            `json:"sent"`
	Errors         int                            `json:"errors"`
	EmailsSent     int                            `json:"emails_sent"`
	MessagesSent   int                            `json:"messages_sent"`
	SourceFailures []domain.SourceFailure         `json:"source_failures"`
	Entries        []domain.ObligationReportEntry `json:"entries"`
	Reporting      ReportingStatus                `json:"reporting"`
}

type ReportingStatus struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// BuildCallerResponse reports the run counters. They do not depend on
// whether the admin digest was delivered.
func BuildCallerResponse(summary *domain.RunSummary) CallerResponse {
	sourceFailures := summary.SourceFailures
	if sourceFailures == nil {
		sourceFailures = []domain.SourceFailure{}
	}
	entries := summary.Entries
	if entries == nil {
		entries = []domain.ObligationReportEntry{}
	}

	return CallerResponse{
		Message:        callerMessage(summary),
		RunID:          summary.RunID,
		Today:          summary.Today,
		Simulated:      summary.Simulated,
		Total:          summary.Total,
		Sent:           summary.Sent,
		Errors:         summary.Errors,
		EmailsSent:     summary.EmailsSent,
		MessagesSent:   summary.MessagesSent,
		SourceFailures: sourceFailures,
		Entries:        entries,
		Reporting:      ReportingStatus{Delivered: true},
	}
}

// WithReporting records the digest delivery outcome on the response.
func (r CallerResponse) WithReporting(err error) CallerResponse {
	if err != nil {
		r.Reporting = ReportingStatus{Delivered: false, Error: err.Error()}
	} else {
		r.Reporting = ReportingStatus{Delivered: true}
	}
	return r
}

func callerMessage(summary *domain.RunSummary) string {
	prefix := ""
	if summary.Simulated {
		prefix = "[simulación] "
	}
	if summary.Total == 0 {
		return prefix + "✅ No hay recordatorios pendientes."
	}
	return fmt.Sprintf("%s✅ Recordatorios enviados: %d, ❌ Errores: %d", prefix, summary.Sent, summary.Errors)
}
