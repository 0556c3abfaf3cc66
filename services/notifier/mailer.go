package notifier

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"sjsage522/fundgrubenotifier/config"
	"sjsage522/fundgrubenotifier/logger"
)

const senderName = "Fundgrube Notifier"

// ErrMailDisabled is returned by NoOpMailer. The notifier leaves the stored
// error category untouched when it sees it
var ErrMailDisabled = errors.New("mail disabled")

// Mailer delivers a single plain text message
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// dialer is the part of gomail.Dialer the mailer uses
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP server with STARTTLS
type SMTPMailer struct {
	sender   string
	receiver string
	dialer   dialer
}

// NewSMTPMailer creates a mailer from the mail settings in cfg
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	receiver := cfg.MailReceiver
	if receiver == "" {
		receiver = cfg.MailSender
	}
	return &SMTPMailer{
		sender:   cfg.MailSender,
		receiver: receiver,
		dialer:   gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.MailSender, cfg.MailPassword),
	}
}

// NewMailer returns an SMTPMailer when credentials are configured and a
// NoOpMailer otherwise
func NewMailer(cfg *config.Config) Mailer {
	if !cfg.MailEnabled() {
		return NewNoOpMailer()
	}
	return NewSMTPMailer(cfg)
}

// Subject returns the subject line as sent. Mails to oneself are prefixed so
// they can be told apart in a shared inbox
func (m *SMTPMailer) Subject(subject string) string {
	if m.sender == m.receiver {
		return "Fundgrube: " + subject
	}
	return subject
}

// Send builds and delivers the message. The context is checked before
// dialing; gomail does not support cancellation mid-send
func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.sender, senderName)
	msg.SetHeader("To", m.receiver)
	msg.SetHeader("Subject", m.Subject(subject))
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.receiver, err)
	}
	return nil
}

// NoOpMailer discards messages with a log line. It is used when no mail
// credentials are configured
type NoOpMailer struct{}

// NewNoOpMailer creates a mailer that discards every message
func NewNoOpMailer() *NoOpMailer {
	return &NoOpMailer{}
}

// Send logs and discards the message
func (n *NoOpMailer) Send(_ context.Context, subject, body string) error {
	logger.ForNotifier().Info().
		Str("subject", subject).
		Int("body_length", len(body)).
		Msg("Mail discarded (no credentials configured)")
	return ErrMailDisabled
}
