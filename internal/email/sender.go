package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chatguus/chatguus-backend/internal/config"
)

// Delivery modes reported in results and metrics.
const (
	ModeSMTP = "smtp"
	ModeLog  = "log"
)

// Mail is a rendered HTML message.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a Mail and returns its message id.
type Sender interface {
	Send(ctx context.Context, m Mail) (string, error)
	Mode() string
}

// LogSender logs mail instead of delivering it.
type LogSender struct {
	now func() time.Time
}

// NewLogSender returns a LogSender using the wall clock.
func NewLogSender() *LogSender { return &LogSender{now: time.Now} }

// Send implements Sender. It never fails.
func (s *LogSender) Send(ctx context.Context, m Mail) (string, error) {
	preview := m.HTML
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	log.Ctx(ctx).Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("content", preview).
		Msg("email logged (SMTP not configured)")
	return "logged-only-" + strconv.FormatInt(s.now().UnixMilli(), 10), nil
}

// Mode implements Sender.
func (s *LogSender) Mode() string { return ModeLog }

// SMTPSender delivers mail over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewSMTPSender builds a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     port,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.From,
		timeout:  15 * time.Second,
	}
}

// Mode implements Sender.
func (s *SMTPSender) Mode() string { return ModeSMTP }

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, m Mail) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return "", fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return "", fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return "", fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	envelopeFrom := addressOf(s.from)
	if err := c.Mail(envelopeFrom); err != nil {
		return "", fmt.Errorf("failed to set sender: %w", err)
	}
	if err := c.Rcpt(m.To); err != nil {
		return "", fmt.Errorf("failed to set recipient: %w", err)
	}

	id := messageID(envelopeFrom)
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(buildMessage(s.from, m, id, time.Now())); err != nil {
		return "", fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close data writer: %w", err)
	}
	_ = c.Quit()

	log.Ctx(ctx).Info().Str("to", m.To).Str("message_id", id).Msg("email sent")
	return id, nil
}

// messageID returns "<uuid@host>" using the host of the sender address.
func messageID(from string) string {
	host := "chatguus.local"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		host = from[i+1:]
	}
	return "<" + uuid.NewString() + "@" + host + ">"
}

// addressOf extracts the bare address from `"Name" <addr>`.
func addressOf(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

func buildMessage(from string, m Mail, id string, date time.Time) []byte {
	var sb strings.Builder
	header := func(k, v string) { sb.WriteString(k + ": " + v + "\r\n") }
	header("From", from)
	header("To", m.To)
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", id)
	header("MIME-Version", "1.0")
	header("Content-Type", "text/html; charset=UTF-8")
	header("X-Mailer", "ChatGuusPT")
	sb.WriteString("\r\n")
	sb.WriteString(m.HTML)
	return []byte(sb.String())
}
