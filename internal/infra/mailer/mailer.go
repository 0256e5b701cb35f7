package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/wneessen/go-mail"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

const reminderSubject = "📌 Recordatorio de Impuesto"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("mail").
		Funcs(template.FuncMap{"formatDate": formatDate}).
		ParseFS(templateFS, "templates/*.html"),
)

// transport is the part of *mail.Client used for delivery.
type transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Options struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSPolicy string
	Timeout   time.Duration
	From      string
	FromName  string
	LogoURL   string
	AdminBCC  []string
}

// Mailer sends client reminders and the admin digest over SMTP.
type Mailer struct {
	transport transport
	from      string
	fromName  string
	logoURL   string
	adminBCC  []string
}

func NewMailer(opts Options) (*Mailer, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(tlsPolicy(opts.TLSPolicy)),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newMailer(client, opts), nil
}

func newMailer(t transport, opts Options) *Mailer {
	return &Mailer{
		transport: t,
		from:      opts.From,
		fromName:  opts.FromName,
		logoURL:   opts.LogoURL,
		adminBCC:  opts.AdminBCC,
	}
}

// Send delivers the reminder email for one obligation.
func (m *Mailer) Send(ctx context.Context, recipient string, obligation domain.TaxObligation) error {
	body, err := m.renderReminder(obligation)
	if err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "failed to render reminder", err)
	}

	msg, err := m.newMessage(recipient, reminderSubject, body, nil)
	if err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "invalid message", err)
	}

	if err := m.transport.DialAndSendWithContext(ctx, msg); err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "smtp delivery failed", err)
	}

	slog.DebugContext(ctx, "reminder email sent",
		slog.String("obligation_id", obligation.ID),
		slog.String("recipient", recipient),
	)

	return nil
}

// SendDigest delivers the admin digest, copying the configured BCC list.
func (m *Mailer) SendDigest(ctx context.Context, recipient, subject string, entries []domain.DigestEntry) error {
	body, err := m.renderDigest(subject, entries)
	if err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "failed to render digest", err)
	}

	msg, err := m.newMessage(recipient, subject, body, m.adminBCC)
	if err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "invalid message", err)
	}

	if err := m.transport.DialAndSendWithContext(ctx, msg); err != nil {
		return domain.NewSendError(domain.ChannelEmail, recipient, "smtp delivery failed", err)
	}

	slog.InfoContext(ctx, "admin digest sent",
		slog.String("recipient", recipient),
		slog.Int("entries", len(entries)),
		slog.Int("bcc", len(m.adminBCC)),
	)

	return nil
}

func (m *Mailer) newMessage(recipient, subject, body string, bcc []string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, err
	}
	if err := msg.To(recipient); err != nil {
		return nil, err
	}
	if len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return nil, err
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (m *Mailer) renderReminder(obligation domain.TaxObligation) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "reminder.html", struct {
		Obligation domain.TaxObligation
		LogoURL    string
		FromName   string
	}{
		Obligation: obligation,
		LogoURL:    m.logoURL,
		FromName:   m.fromName,
	})
	return buf.String(), err
}

func (m *Mailer) renderDigest(subject string, entries []domain.DigestEntry) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "digest.html", struct {
		Subject  string
		Entries  []domain.DigestEntry
		LogoURL  string
		FromName string
	}{
		Subject:  subject,
		Entries:  entries,
		LogoURL:  m.logoURL,
		FromName: m.fromName,
	})
	return buf.String(), err
}

func formatDate(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case "opportunistic":
		return mail.TLSOpportunistic
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}
