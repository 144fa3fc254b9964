// Package alert delivers therapist notifications over email and watches
// an inbox for approval replies.
package alert

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/logging"
)

// Alert is one therapist notification.
type Alert struct {
	To        string
	UserName  string
	UserID    int64
	ThreadID  string
	RiskLevel domain.RiskLevel
	Summary   string
	Notes     string
	Timestamp time.Time
}

// Mailer delivers alerts to a care provider.
type Mailer interface {
	SendAlert(ctx context.Context, a Alert) error
}

// SMTPConfig configures outbound mail.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// SMTPMailer sends alerts through a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
	log *logging.Logger
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(cfg SMTPConfig, log *logging.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.Sub("mailer")}
}

// SendAlert delivers one alert. The message carries both plain-text and
// HTML parts; the subject encodes the risk level and the thread ID so an
// emailed APPROVE/DENY reply can be matched back to the thread.
func (m *SMTPMailer) SendAlert(ctx context.Context, a Alert) error {
	if a.To == "" {
		return fmt.Errorf("alert has no recipient")
	}

	msg, err := buildMessage(m.cfg.From, a)
	if err != nil {
		return fmt.Errorf("building alert message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{a.To}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			m.log.Error().Err(err).Str("to", a.To).Msg("alert delivery failed")
			return fmt.Errorf("sending alert: %w", err)
		}
	}

	m.log.Info().Str("to", a.To).Str("risk_level", string(a.RiskLevel)).Str("thread", a.ThreadID).Msg("alert delivered")
	return nil
}

// Subject returns the alert subject line for a risk level and thread.
func Subject(level domain.RiskLevel, threadID string) string {
	urgency := "ALERT"
	if level == domain.RiskImminent {
		urgency = "URGENT"
	}
	return fmt.Sprintf("[%s] Haven risk notification (%s) [thread:%s]", urgency, level, threadID)
}

func buildMessage(from string, a Alert) ([]byte, error) {
	var body strings.Builder
	mw := multipart.NewWriter(&body)

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/alternative; boundary=%s\r\n\r\n",
		from, a.To, Subject(a.RiskLevel, a.ThreadID), mw.Boundary())

	plain, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(plain, plainBody(a))

	html, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(html, htmlBody(a))

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return []byte(headers + body.String()), nil
}

func plainBody(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk notification for %s (user %d)\n\n", a.UserName, a.UserID)
	fmt.Fprintf(&b, "Risk level: %s\n", strings.ToUpper(string(a.RiskLevel)))
	fmt.Fprintf(&b, "Time: %s\n\n", a.Timestamp.Format(time.RFC1123))
	fmt.Fprintf(&b, "Situation summary:\n%s\n", a.Summary)
	if a.Notes != "" {
		fmt.Fprintf(&b, "\nAdditional notes:\n%s\n", a.Notes)
	}
	b.WriteString("\nThis is an automated notification from Haven. Please follow up with your client according to your crisis response procedures.\n")
	fmt.Fprintf(&b, "\nReply with APPROVE %s or DENY %s to resolve a pending escalation for this conversation.\n", a.ThreadID, a.ThreadID)
	return b.String()
}

func htmlBody(a Alert) string {
	color := "#d97706"
	if a.RiskLevel == domain.RiskImminent {
		color = "#dc2626"
	}
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: sans-serif\">")
	fmt.Fprintf(&b, "<h2 style=\"color:%s\">Risk notification: %s</h2>", color, strings.ToUpper(string(a.RiskLevel)))
	fmt.Fprintf(&b, "<p><strong>Client:</strong> %s (user %d)<br><strong>Time:</strong> %s</p>", a.UserName, a.UserID, a.Timestamp.Format(time.RFC1123))
	fmt.Fprintf(&b, "<h3>Situation summary</h3><p>%s</p>", a.Summary)
	if a.Notes != "" {
		fmt.Fprintf(&b, "<h3>Additional notes</h3><p>%s</p>", a.Notes)
	}
	b.WriteString("<hr><p style=\"color:#6b7280;font-size:small\">This is an automated notification from Haven. Please follow up with your client according to your crisis response procedures.</p>")
	fmt.Fprintf(&b, "<p style=\"color:#6b7280;font-size:small\">Reply with <code>APPROVE %s</code> or <code>DENY %s</code> to resolve a pending escalation.</p>", a.ThreadID, a.ThreadID)
	b.WriteString("</body></html>")
	return b.String()
}
