// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Email is one outgoing message. TextBody is required; HTMLBody is optional.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email. SMTP and SES implement it.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Mailer sends site email through a Sender and never fails the caller's
// request: delivery errors are logged.
type Mailer struct {
	sender   Sender
	fromName string
	log      *zap.Logger
}

// New wraps sender. A nil sender logs messages instead of sending them.
func New(sender Sender, fromName string, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{sender: sender, fromName: fromName, log: log}
}

// FromName returns the sender display name, used as the site name in bodies.
func (m *Mailer) FromName() string { return m.fromName }

// Notify sends email and logs the outcome. It reports whether delivery
// succeeded so callers can record it.
func (m *Mailer) Notify(ctx context.Context, email Email) bool {
	if m == nil {
		return false
	}
	if m.sender == nil {
		m.log.Info("mail disabled, not sending", zap.String("to", email.To), zap.String("subject", email.Subject))
		return false
	}
	if err := m.sender.Send(ctx, email); err != nil {
		m.log.Warn("email not sent",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return false
	}
	m.log.Info("email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return true
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// SMTP sends mail with net/smtp.
type SMTP struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, send: smtp.SendMail}
}

// Send implements Sender. net/smtp has no context support, so ctx is only
// checked before dialing.
func (s *SMTP) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Pass != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	msg := buildMessage(formatFrom(s.cfg.FromName, s.cfg.From), email, time.Now())
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{headerSafe(email.To)}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func formatFrom(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", headerSafe(name)), addr)
}

// headerSafe strips CR and LF so form input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

func buildMessage(from string, email Email, now time.Time) []byte {
	var msg bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&msg, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", headerSafe(email.To))
	if email.ReplyTo != "" {
		header("Reply-To", headerSafe(email.ReplyTo))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", headerSafe(email.Subject)))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		msg.WriteString("\r\n")
		msg.WriteString(email.TextBody)
		return msg.Bytes()
	}

	boundary := randomBoundary()
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	msg.WriteString("\r\n")
	for _, part := range []struct{ typ, body string }{
		{"text/plain", email.TextBody},
		{"text/html", email.HTMLBody},
	} {
		fmt.Fprintf(&msg, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part.typ, part.body)
	}
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

func randomBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return "si_" + hex.EncodeToString(b)
}
