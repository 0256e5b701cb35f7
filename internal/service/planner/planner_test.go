package planner

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

func newObligation() domain.TaxObligation {
	return domain.TaxObligation{
		ID:              "obl-1",
		BusinessName:    "Ferretería El Puente",
		TaxID:           "900123456-7",
		Name:            "IVA bimestral",
		DueDate:         civil.Date{Year: 2025, Month: 5, Day: 20},
		ClientEmail:     "cliente@puente.com",
		ClientPhone:     "+573001112233",
		AccountantEmail: "contador@cala.com",
		AccountantPhone: "+573154445566",
	}
}

func countPlanned(attempts []domain.NotificationAttempt, ch domain.Channel) int {
	n := 0
	for _, a := range attempts {
		if a.Channel == ch && a.IsPlanned() {
			n++
		}
	}
	return n
}

func TestPlan_Order(t *testing.T) {
	attempts := New().Plan(newObligation(), 1, false)

	if len(attempts) != MaxAttempts {
		t.Fatalf("got %d attempts, want %d", len(attempts), MaxAttempts)
	}

	want := []struct {
		channel domain.Channel
		role    domain.Role
	}{
		{domain.ChannelEmail, domain.RoleClient},
		{domain.ChannelEmail, domain.RoleAccountant},
		{domain.ChannelMessage, domain.RoleClient},
		{domain.ChannelMessage, domain.RoleAccountant},
	}
	for i, w := range want {
		if attempts[i].Channel != w.channel || attempts[i].Role != w.role {
			t.Errorf("attempt[%d] = (%s, %s), want (%s, %s)", i, attempts[i].Channel, attempts[i].Role, w.channel, w.role)
		}
		if !attempts[i].IsPlanned() {
			t.Errorf("attempt[%d] outcome = %s, want pending", i, attempts[i].Outcome)
		}
		if attempts[i].ObligationID != "obl-1" {
			t.Errorf("attempt[%d] obligation id = %q", i, attempts[i].ObligationID)
		}
	}
}

func TestPlan_Rules(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(o *domain.TaxObligation)
		wantEmails   int
		wantMessages int
		wantSkip     map[int]string
	}{
		{
			name:         "all valid and distinct",
			mutate:       func(o *domain.TaxObligation) {},
			wantEmails:   2,
			wantMessages: 2,
		},
		{
			name: "identical emails yield one email attempt",
			mutate: func(o *domain.TaxObligation) {
				o.ClientEmail = "a@b.com"
				o.AccountantEmail = "a@b.com"
			},
			wantEmails:   1,
			wantMessages: 2,
			wantSkip:     map[int]string{1: SkipSameAsClient},
		},
		{
			name: "invalid client phone yields accountant message only",
			mutate: func(o *domain.TaxObligation) {
				o.ClientPhone = "123"
				o.AccountantPhone = "+573001234567"
			},
			wantEmails:   2,
			wantMessages: 1,
			wantSkip:     map[int]string{2: SkipInvalidPhone},
		},
		{
			name: "same phone skips accountant message",
			mutate: func(o *domain.TaxObligation) {
				o.AccountantPhone = o.ClientPhone
			},
			wantEmails:   2,
			wantMessages: 1,
			wantSkip:     map[int]string{3: SkipSameAsClient},
		},
		{
			name: "empty client email skips accountant email",
			mutate: func(o *domain.TaxObligation) {
				o.ClientEmail = ""
			},
			wantEmails:   0,
			wantMessages: 2,
			wantSkip:     map[int]string{0: SkipInvalidEmail, 1: SkipNoClient},
		},
		{
			name: "empty client contacts skip every accountant attempt",
			mutate: func(o *domain.TaxObligation) {
				o.ClientEmail = ""
				o.ClientPhone = ""
				o.AccountantEmail = "c@d.com"
				o.AccountantPhone = "+573001234567"
			},
			wantEmails:   0,
			wantMessages: 0,
			wantSkip:     map[int]string{0: SkipInvalidEmail, 1: SkipNoClient, 2: SkipInvalidPhone, 3: SkipNoClient},
		},
		{
			name: "case difference counts as distinct",
			mutate: func(o *domain.TaxObligation) {
				o.ClientEmail = "A@b.com"
				o.AccountantEmail = "a@b.com"
			},
			wantEmails:   2,
			wantMessages: 2,
		},
		{
			name: "no contacts at all",
			mutate: func(o *domain.TaxObligation) {
				o.ClientEmail, o.AccountantEmail, o.ClientPhone, o.AccountantPhone = "", "", "", ""
			},
			wantEmails:   0,
			wantMessages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newObligation()
			tt.mutate(&o)

			attempts := New().Plan(o, 3, false)

			if got := countPlanned(attempts, domain.ChannelEmail); got != tt.wantEmails {
				t.Errorf("planned emails = %d, want %d", got, tt.wantEmails)
			}
			if got := countPlanned(attempts, domain.ChannelMessage); got != tt.wantMessages {
				t.Errorf("planned messages = %d, want %d", got, tt.wantMessages)
			}
			for idx, reason := range tt.wantSkip {
				if attempts[idx].Outcome != domain.OutcomeSkipped || attempts[idx].SkipReason != reason {
					t.Errorf("attempt[%d] = (%s, %q), want skipped %q", idx, attempts[idx].Outcome, attempts[idx].SkipReason, reason)
				}
			}
		})
	}
}

func TestPlan_Simulate(t *testing.T) {
	o := newObligation()
	o.AccountantPhone = "12"

	attempts := New().Plan(o, 1, true)

	for i, a := range attempts {
		if a.Outcome != domain.OutcomeSkipped {
			t.Errorf("attempt[%d] outcome = %s, want skipped", i, a.Outcome)
		}
	}
	for _, i := range []int{0, 1, 2} {
		if !attempts[i].Simulated || attempts[i].SkipReason != domain.SkipReasonSimulated {
			t.Errorf("attempt[%d] should be simulated, got %+v", i, attempts[i])
		}
	}
	if attempts[3].Simulated {
		t.Error("attempt[3] failed validation and must not be marked simulated")
	}
}

func TestMessageText(t *testing.T) {
	o := newObligation()

	urgent := MessageText(o, 1)
	if !strings.Contains(urgent, "urgente") || !strings.Contains(urgent, "vence mañana") {
		t.Errorf("urgent text = %q", urgent)
	}

	generic := MessageText(o, 3)
	if !strings.Contains(generic, "vence en 3 días") {
		t.Errorf("generic text = %q", generic)
	}
	for _, text := range []string{urgent, generic} {
		if !strings.Contains(text, o.Name) || !strings.Contains(text, o.BusinessName) {
			t.Errorf("text %q should name obligation and business", text)
		}
	}
}
