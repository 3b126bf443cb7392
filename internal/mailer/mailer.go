// Package mailer sends HTML email through the configured SMTP relay.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/edgard/groupmebot/internal/config"
	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/logger"
)

// Mailer sends one message to a list of recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMTPMailer delivers mail with STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg config.MailConfig
	log *slog.Logger
}

// New creates an SMTPMailer for the relay in cfg.
func New(cfg config.MailConfig, log *slog.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Discard()
	}
	return &SMTPMailer{cfg: cfg, log: log.With("component", "mailer")}
}

// Send delivers the message. Any failure, whether building the message,
// connecting or sending, is returned as MailDeliveryFailed.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	msg, err := BuildMessage(m.cfg.From, to, subject, htmlBody)
	if err != nil {
		return errs.NewMailDeliveryFailed(err)
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errs.NewMailDeliveryFailed(fmt.Errorf("failed to create SMTP client: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.log.ErrorContext(ctx, "Failed to send email", "recipients", len(to), "error", err)
		return errs.NewMailDeliveryFailed(err)
	}

	m.log.InfoContext(ctx, "Email sent", "recipients", len(to), "subject", subject)
	return nil
}

// BuildMessage assembles an HTML message addressed to every recipient.
func BuildMessage(from string, to []string, subject, htmlBody string) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}
