package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Classification is the single terminal class each obligation reaches in a run.
type Classification string

const (
	ClassificationSent      Classification = "sent"
	ClassificationError     Classification = "error"
	ClassificationUnreached Classification = "unreached"
)

func (c Classification) String() string {
	return string(c)
}

// ObligationReportEntry is the per-obligation slice of a run report.
type ObligationReportEntry struct {
	ObligationID   string                `json:"obligation_id"`
	BusinessName   string                `json:"business_name"`
	TaxID          string                `json:"tax_id"`
	ObligationName string                `json:"obligation_name"`
	ClientEmail    string                `json:"client_email"`
	DueDate        civil.Date            `json:"due_date"`
	DaysUntilDue   int                   `json:"days_until_due"`
	Attempts       []NotificationAttempt `json:"attempts"`
	Error          string                `json:"error,omitempty"`
	Classification Classification        `json:"classification"`
}

func NewObligationReportEntry(o TaxObligation, today civil.Date) ObligationReportEntry {
	return ObligationReportEntry{
		ObligationID:   o.ID,
		BusinessName:   o.BusinessName,
		TaxID:          o.TaxID,
		ObligationName: o.Name,
		ClientEmail:    o.ClientEmail,
		DueDate:        o.DueDate,
		DaysUntilDue:   o.DaysUntilDue(today),
	}
}

// SentCount returns the number of successful attempts on the given channel.
func (e *ObligationReportEntry) SentCount(ch Channel) int {
	n := 0
	for _, a := range e.Attempts {
		if a.Channel == ch && a.Outcome == OutcomeSent {
			n++
		}
	}
	return n
}

func (e *ObligationReportEntry) HasSent() bool {
	for _, a := range e.Attempts {
		if a.Outcome == OutcomeSent {
			return true
		}
	}
	return false
}

func (e *ObligationReportEntry) FailureReasons() []string {
	var reasons []string
	for _, a := range e.Attempts {
		if a.Outcome == OutcomeFailed {
			reasons = append(reasons, a.Channel.String()+" "+a.Role.String()+": "+a.FailureReason)
		}
	}
	return reasons
}

// Classify assigns the entry's terminal class. An entry without a processing
// error whose attempts all failed gets its error field filled from the
// failure reasons.
func (e *ObligationReportEntry) Classify(simulated bool) Classification {
	switch {
	case e.Error != "":
		e.Classification = ClassificationError
	case e.HasSent() || simulated:
		e.Classification = ClassificationSent
	default:
		if reasons := e.FailureReasons(); len(reasons) > 0 {
			e.Error = strings.Join(reasons, "; ")
			e.Classification = ClassificationError
		} else {
			e.Classification = ClassificationUnreached
		}
	}
	return e.Classification
}

// SourceFailure records a target date whose obligations could not be read.
type SourceFailure struct {
	Date          civil.Date `json:"date"`
	LookaheadDays []int      `json:"lookahead_days"`
	Reason        string     `json:"reason"`
}

// RunSummary aggregates one run. It is owned by the run that created it.
type RunSummary struct {
	RunID          string                  `json:"run_id"`
	Today          civil.Date              `json:"today"`
	Total          int                     `json:"total"`
	Sent           int                     `json:"sent"`
	Errors         int                     `json:"errors"`
	EmailsSent     int                     `json:"emails_sent"`
	MessagesSent   int                     `json:"messages_sent"`
	Simulated      bool                    `json:"simulated"`
	Entries        []ObligationReportEntry `json:"entries"`
	SourceFailures []SourceFailure         `json:"source_failures,omitempty"`
}

func NewRunSummary(runID string, today civil.Date, simulated bool) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Today:     today,
		Simulated: simulated,
		Entries:   make([]ObligationReportEntry, 0),
	}
}

// Record classifies the entry and folds it into the counters.
func (s *RunSummary) Record(entry ObligationReportEntry) {
	switch entry.Classify(s.Simulated) {
	case ClassificationSent:
		s.Sent++
	case ClassificationError:
		s.Errors++
	}
	s.Total++
	s.EmailsSent += entry.SentCount(ChannelEmail)
	s.MessagesSent += entry.SentCount(ChannelMessage)
	s.Entries = append(s.Entries, entry)
}

func (s *RunSummary) RecordSourceFailure(date civil.Date, lookaheadDays []int, err error) {
	s.SourceFailures = append(s.SourceFailures, SourceFailure{
		Date:          date,
		LookaheadDays: lookaheadDays,
		Reason:        err.Error(),
	})
}

// IsEmpty reports whether no obligation was considered.
func (s *RunSummary) IsEmpty() bool {
	return len(s.Entries) == 0
}
