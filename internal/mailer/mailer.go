// Package mailer sends registration confirmation emails.
//
// Email is strictly best-effort: the service calls Send after the data
// write has already succeeded, failures are logged and swallowed, and a
// missing SMTP configuration degrades to a no-op mailer so registrations
// keep working without credentials.
package mailer

import (
	"fmt"
	"html"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers a confirmation for a new or updated registration.
// The service depends on this interface; tests swap in a recording fake.
type Mailer interface {
	SendConfirmation(toEmail, leadName string, isUpdate bool) error
}

// Config holds SMTP settings, normally read from the environment.
type Config struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     string // e.g. "587"
	User     string // sender account, also the From address
	Password string // app password for PlainAuth
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.User != "" && c.Password != ""
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an SMTPMailer for the given config.
func New(cfg Config, logger *slog.Logger) *SMTPMailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendConfirmation emails the lead a confirmation of their registration,
// with distinct wording for a first registration versus an edit.
func (m *SMTPMailer) SendConfirmation(toEmail, leadName string, isUpdate bool) error {
	msg := buildMessage(m.cfg.User, toEmail, leadName, isUpdate)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.User, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("mailer: sending to %s: %w", toEmail, err)
	}

	m.logger.Info("confirmation email sent",
		slog.String("to", toEmail),
		slog.Bool("update", isUpdate),
	)
	return nil
}

// buildMessage renders the full RFC 5322 message. The lead name is
// caller-supplied form input and must be HTML-escaped before it lands in
// the body.
func buildMessage(from, toEmail, leadName string, isUpdate bool) []byte {
	subject := "Nova Nataka Registration Successful"
	title := "Welcome to Nova Nataka!"
	status := "Your registration for Nova Nataka has been successfully completed."
	if isUpdate {
		subject = "Nova Nataka Registration Updated"
		title = "Registration Updated"
		status = "Your registration details have been successfully updated."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: Nova Nataka Team <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, `<div style="font-family: sans-serif; max-width: 600px; margin: auto;">
		<h2>%s</h2>
		<p>Hello <strong>%s</strong>,</p>
		<p>%s</p>
		<p>Get ready to shine on stage among the stars. See you at the event!</p>
		<p style="color: #777;">Best regards,<br>Nova Nataka Organizing Team</p>
		</div>`, title, html.EscapeString(leadName), status)

	return []byte(b.String())
}

// Noop is the mailer wired in when SMTP credentials are absent.
type Noop struct {
	logger *slog.Logger
}

// NewNoop returns a mailer that logs and discards every send.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SendConfirmation(toEmail, _ string, _ bool) error {
	n.logger.Warn("email credentials not configured, skipping confirmation email",
		slog.String("to", toEmail),
	)
	return nil
}
