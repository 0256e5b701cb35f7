package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/wneessen/go-mail"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

type fakeTransport struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeTransport) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func testOptions() Options {
	return Options{
		From:     "recordatorios@cala.com",
		FromName: "Cala Asociados",
		LogoURL:  "https://cala.example.com/cala.png",
		AdminBCC: []string{"socio1@cala.com", "socio2@cala.com"},
	}
}

func testObligation() domain.TaxObligation {
	return domain.TaxObligation{
		ID:           "obl-1",
		BusinessName: "Panadería & Café",
		TaxID:        "901222333-4",
		Name:         "ICA",
		DueDate:      civil.Date{Year: 2025, Month: 3, Day: 7},
	}
}

func TestSend(t *testing.T) {
	ft := &fakeTransport{}
	m := newMailer(ft, testOptions())

	if err := m.Send(context.Background(), "cliente@panaderia.com", testObligation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ft.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(ft.sent))
	}
	msg := ft.sent[0]
	if to := msg.GetToString(); len(to) != 1 || !strings.Contains(to[0], "cliente@panaderia.com") {
		t.Errorf("To = %v", to)
	}
	if bcc := msg.GetBccString(); len(bcc) != 0 {
		t.Errorf("reminder must not carry BCC, got %v", bcc)
	}
	if subject := msg.GetGenHeader(mail.HeaderSubject); len(subject) != 1 || subject[0] != reminderSubject {
		t.Errorf("Subject = %v", subject)
	}
}

func TestSend_TransportError(t *testing.T) {
	cause := errors.New("connection reset")
	m := newMailer(&fakeTransport{err: cause}, testOptions())

	err := m.Send(context.Background(), "cliente@panaderia.com", testObligation())

	var sendErr *domain.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *domain.SendError, got %T", err)
	}
	if sendErr.Channel != domain.ChannelEmail || !errors.Is(err, cause) {
		t.Errorf("unexpected send error: %v", err)
	}
}

func TestSend_InvalidRecipient(t *testing.T) {
	ft := &fakeTransport{}
	m := newMailer(ft, testOptions())

	err := m.Send(context.Background(), "not an address", testObligation())

	var sendErr *domain.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *domain.SendError, got %v", err)
	}
	if len(ft.sent) != 0 {
		t.Error("nothing should be sent for an invalid recipient")
	}
}

func TestSendDigest(t *testing.T) {
	ft := &fakeTransport{}
	m := newMailer(ft, testOptions())
	subject := "📌 Resumen de impuestos por vencer: 1 obligación reportada (producción)"

	entries := []domain.DigestEntry{{
		BusinessName:   "Panadería & Café",
		ObligationName: "ICA",
		TaxID:          "901222333-4",
		ClientEmail:    "cliente@panaderia.com",
		DueDate:        civil.Date{Year: 2025, Month: 3, Day: 7},
		DaysUntilDue:   1,
		Status:         "enviado",
	}}

	if err := m.SendDigest(context.Background(), "admin@cala.com", subject, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ft.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(ft.sent))
	}
	if bcc := ft.sent[0].GetBccString(); len(bcc) != 2 {
		t.Errorf("Bcc = %v, want 2 recipients", bcc)
	}
	if got := ft.sent[0].GetGenHeader(mail.HeaderSubject); len(got) != 1 || got[0] != subject {
		t.Errorf("Subject = %v", got)
	}
}

func TestRenderReminder(t *testing.T) {
	m := newMailer(&fakeTransport{}, testOptions())

	body, err := m.renderReminder(testObligation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"ICA", "Panadería &amp; Café", "901222333-4", "07/03/2025", "cala.png", "Cala Asociados"} {
		if !strings.Contains(body, want) {
			t.Errorf("reminder body missing %q", want)
		}
	}
}

func TestRenderDigest(t *testing.T) {
	m := newMailer(&fakeTransport{}, testOptions())

	tests := []struct {
		name    string
		entries []domain.DigestEntry
		want    []string
		notWant []string
	}{
		{
			name:    "empty digest",
			entries: []domain.DigestEntry{},
			want:    []string{"No hay impuestos pendientes"},
		},
		{
			name: "rows rendered",
			entries: []domain.DigestEntry{
				{BusinessName: "Ferretería Norte", ObligationName: "IVA", TaxID: "800", ClientEmail: "f@n.com", DueDate: civil.Date{Year: 2025, Month: 1, Day: 2}, DaysUntilDue: 3, Status: "error"},
			},
			want:    []string{"Ferretería Norte", "IVA", "f@n.com", "02/01/2025", "error"},
			notWant: []string{"No hay impuestos pendientes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := m.renderDigest("Resumen", tt.entries)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("digest body missing %q", want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(body, notWant) {
					t.Errorf("digest body should not contain %q", notWant)
				}
			}
		})
	}
}

func TestTLSPolicy(t *testing.T) {
	tests := []struct {
		input string
		want  mail.TLSPolicy
	}{
		{"mandatory", mail.TLSMandatory},
		{"opportunistic", mail.TLSOpportunistic},
		{"none", mail.NoTLS},
		{"", mail.TLSMandatory},
	}

	for _, tt := range tests {
		if got := tlsPolicy(tt.input); got != tt.want {
			t.Errorf("tlsPolicy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
