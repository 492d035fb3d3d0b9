package report

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"ai-investor/internal/logger"
)

// EmailConfig points the mailer at an SMTP relay. Credentials come from
// SMTP_USERNAME and SMTP_PASSWORD; an empty username sends unauthenticated,
// which suits local relays.
type EmailConfig struct {
	Host      string
	Port      int
	From      string
	Recipient string
}

// Emailer delivers run reports over SMTP.
type Emailer struct {
	cfg EmailConfig
}

func NewEmailer(cfg EmailConfig) *Emailer {
	return &Emailer{cfg: cfg}
}

// Enabled reports whether the config is complete enough to send.
func (e *Emailer) Enabled() bool {
	return e.cfg.Host != "" && e.cfg.Recipient != "" && e.cfg.From != ""
}

// Send mails the report. A delivery failure is the caller's to log; the
// run itself already succeeded by the time a report goes out.
func (e *Emailer) Send(ctx context.Context, subject, body string) error {
	if !e.Enabled() {
		return fmt.Errorf("email not configured")
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	msg := strings.Join([]string{
		"From: " + e.cfg.From,
		"To: " + e.cfg.Recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), e.cfg.Host)
	}

	logger.Info(ctx, "Sending report email", "to", e.cfg.Recipient, "smtp", addr)
	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{e.cfg.Recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
