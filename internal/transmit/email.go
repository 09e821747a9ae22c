package transmit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/rezonia/einvoice/internal/model"
)

// Defaults for the email channel
const (
	DefaultSubject       = "E-Rechnung gemäß UStG §14"
	DocumentAttachment   = "e-rechnung.xml"
	ContainerAttachment  = "rechnung.pdf"
	DefaultSendTimeout   = 20 * time.Second
	transmissionEmailTag = "e-invoice"
)

// DefaultBody is the HTML body sent when no template is configured
const DefaultBody = `<h2>E-Rechnung gemäß UStG §14</h2>
<p>Sehr geehrte Damen und Herren,</p>
<p>anbei erhalten Sie eine elektronische Rechnung im strukturierten Format gemäß § 14 Umsatzsteuergesetz.</p>
<p>Diese E-Rechnung ist nach der europäischen Norm EN 16931 erstellt und ermöglicht eine automatisierte Weiterverarbeitung.</p>
<p>Bei Fragen stehen wir Ihnen gerne zur Verfügung.</p>
<p>Mit freundlichen Grüßen</p>`

const plainBody = `Sehr geehrte Damen und Herren,

anbei erhalten Sie eine elektronische Rechnung im strukturierten Format gemäß § 14 Umsatzsteuergesetz.

Mit freundlichen Grüßen`

// Email sends documents through mailgun
type Email struct {
	mg      mailgun.Mailgun
	from    string
	subject string
	body    string
	timeout time.Duration
	logger  *slog.Logger
}

// EmailOption configures the email channel
type EmailOption func(*Email)

// WithSubject overrides DefaultSubject
func WithSubject(subject string) EmailOption {
	return func(e *Email) {
		if subject != "" {
			e.subject = subject
		}
	}
}

// WithBody overrides DefaultBody
func WithBody(html string) EmailOption {
	return func(e *Email) {
		if html != "" {
			e.body = html
		}
	}
}

func WithEmailLogger(logger *slog.Logger) EmailOption {
	return func(e *Email) {
		e.logger = logger
	}
}

// NewEmail creates an email channel sending from the given address
func NewEmail(mg mailgun.Mailgun, from string, opts ...EmailOption) *Email {
	e := &Email{
		mg:      mg,
		from:    from,
		subject: DefaultSubject,
		body:    DefaultBody,
		timeout: DefaultSendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transmit mails the document, and the PDF container when present, to the
// recipient's address.
func (e *Email) Transmit(ctx context.Context, t model.Transmission) error {
	to := t.Recipient.Email
	if to == "" {
		return model.MissingField("recipient.email")
	}

	subject := e.subject
	if t.InvoiceNumber != "" {
		subject = fmt.Sprintf("%s, Rechnung %s", subject, t.InvoiceNumber)
	}

	message := e.mg.NewMessage(e.from, subject, plainBody, to)
	message.SetHtml(e.body)
	message.AddTag(transmissionEmailTag)
	message.AddBufferAttachment(DocumentAttachment, []byte(t.Document))
	if len(t.Container) > 0 {
		message.AddBufferAttachment(ContainerAttachment, t.Container)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, id, err := e.mg.Send(ctx, message)
	if err != nil {
		e.logger.ErrorContext(ctx, "e-invoice email failed",
			"artifact_id", t.ArtifactID,
			"to", to,
			"error", err,
		)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	e.logger.InfoContext(ctx, "e-invoice email sent",
		"artifact_id", t.ArtifactID,
		"to", to,
		"id", id,
		"mailgun_resp", resp,
	)
	return nil
}
