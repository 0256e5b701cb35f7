package report

import (
	"fmt"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

const (
	subjectNothingDue = "✅ No hay impuestos por vencer"
	subjectReported   = "📌 Resumen de impuestos por vencer: %d %s"

	suffixSimulation = " (simulación)"
	suffixProduction = " (producción)"
)

const (
	StatusSent        = "enviado"
	StatusError       = "error"
	StatusUnreached   = "sin destinatarios"
	StatusSimulated   = "simulado"
	StatusUnprocessed = "sin procesar"
)

type AdminDigest struct {
	Subject string
	Entries []domain.DigestEntry
}

// BuildAdminDigest turns a run summary into the admin digest subject and rows.
// A run with nothing due still yields a digest with an empty row list.
func BuildAdminDigest(summary *domain.RunSummary) AdminDigest {
	entries := make([]domain.DigestEntry, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		entries = append(entries, domain.DigestEntry{
			BusinessName:   e.BusinessName,
			ObligationName: e.ObligationName,
			TaxID:          e.TaxID,
			ClientEmail:    e.ClientEmail,
			DueDate:        e.DueDate,
			DaysUntilDue:   e.DaysUntilDue,
			Status:         entryStatus(e, summary.Simulated),
		})
	}

	return AdminDigest{
		Subject: digestSubject(len(entries), summary.Simulated),
		Entries: entries,
	}
}

func digestSubject(count int, simulated bool) string {
	suffix := suffixProduction
	if simulated {
		suffix = suffixSimulation
	}

	if count == 0 {
		return subjectNothingDue + suffix
	}

	noun := "obligaciones reportadas"
	if count == 1 {
		noun = "obligación reportada"
	}
	return fmt.Sprintf(subjectReported, count, noun) + suffix
}

func entryStatus(e domain.ObligationReportEntry, simulated bool) string {
	switch e.Classification {
	case domain.ClassificationError:
		return StatusError
	case domain.ClassificationSent:
		if simulated {
			return StatusSimulated
		}
		return StatusSent
	case domain.ClassificationUnreached:
		return StatusUnreached
	default:
		return StatusUnprocessed
	}
}
