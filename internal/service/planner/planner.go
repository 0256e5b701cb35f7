package planner

import (
	"fmt"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/recipient"
)

// MaxAttempts is the number of (channel, role) pairs considered per obligation.
const MaxAttempts = 4

const (
	SkipInvalidEmail   = "invalid email"
	SkipInvalidPhone   = "invalid phone"
	SkipSameAsClient   = "same recipient as client"
	SkipNoClient       = "no client contact to compare"
	urgentDaysUntilDue = 1
)

type Planner struct{}

func New() *Planner {
	return &Planner{}
}

// Plan returns the four attempts for one obligation in fixed order: email to
// client, email to accountant, message to client, message to accountant.
// Attempts failing their preconditions are Skipped. With simulate set, the
// remaining attempts are marked simulated instead of left pending.
func (p *Planner) Plan(o domain.TaxObligation, daysUntilDue int, simulate bool) []domain.NotificationAttempt {
	text := MessageText(o, daysUntilDue)

	attempts := []domain.NotificationAttempt{
		p.emailAttempt(o, domain.RoleClient, o.ClientEmail, ""),
		p.emailAttempt(o, domain.RoleAccountant, o.AccountantEmail, o.ClientEmail),
		p.messageAttempt(o, domain.RoleClient, o.ClientPhone, "", text),
		p.messageAttempt(o, domain.RoleAccountant, o.AccountantPhone, o.ClientPhone, text),
	}

	if simulate {
		for i := range attempts {
			if attempts[i].IsPlanned() {
				attempts[i].MarkSimulated()
			}
		}
	}

	return attempts
}

func (p *Planner) emailAttempt(o domain.TaxObligation, role domain.Role, address, clientAddress string) domain.NotificationAttempt {
	a := domain.NotificationAttempt{
		Channel:      domain.ChannelEmail,
		Role:         role,
		Recipient:    address,
		ObligationID: o.ID,
		Outcome:      domain.OutcomePending,
	}

	switch {
	case !recipient.IsValidEmail(address):
		a.MarkSkipped(SkipInvalidEmail)
	case role == domain.RoleAccountant && !recipient.IsDistinctRecipient(clientAddress, address):
		a.MarkSkipped(notDistinctReason(clientAddress))
	}

	return a
}

func (p *Planner) messageAttempt(o domain.TaxObligation, role domain.Role, phone, clientPhone, text string) domain.NotificationAttempt {
	a := domain.NotificationAttempt{
		Channel:      domain.ChannelMessage,
		Role:         role,
		Recipient:    phone,
		ObligationID: o.ID,
		Text:         text,
		Outcome:      domain.OutcomePending,
	}

	switch {
	case !recipient.IsValidPhone(phone):
		a.MarkSkipped(SkipInvalidPhone)
	case role == domain.RoleAccountant && !recipient.IsDistinctRecipient(clientPhone, phone):
		a.MarkSkipped(notDistinctReason(clientPhone))
	}

	return a
}

// notDistinctReason tells a missing client contact apart from a duplicate.
// Either way the accountant attempt is skipped.
func notDistinctReason(client string) string {
	if client == "" {
		return SkipNoClient
	}
	return SkipSameAsClient
}

// MessageText builds the instant message body. Only the urgency framing
// varies with the days until due.
func MessageText(o domain.TaxObligation, daysUntilDue int) string {
	if daysUntilDue == urgentDaysUntilDue {
		return fmt.Sprintf("🔔 Recordatorio urgente: El impuesto *%s* de la empresa *%s* vence mañana (%s).",
			o.Name, o.BusinessName, o.DueDate.String())
	}
	return fmt.Sprintf("🔔 Recordatorio: El impuesto *%s* de la empresa *%s* vence en %d días (%s).",
		o.Name, o.BusinessName, daysUntilDue, o.DueDate.String())
}
