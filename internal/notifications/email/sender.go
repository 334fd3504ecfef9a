// Package email delivers rendered notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/notifications"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
)

const (
	defaultPort        = 587
	defaultDialTimeout = 10 * time.Second
)

// Config holds SMTP settings.
type Config struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	// FromAddress is an RFC 5322 address, optionally with a display name.
	FromAddress string
	DialTimeout time.Duration
}

// Sender implements notifications.Sender. Each Send opens its own SMTP session,
// upgrading to TLS when the server offers STARTTLS.
type Sender struct {
	config Config
	from   *mail.Address
	auth   smtp.Auth
	now    func() time.Time
}

var _ notifications.Sender = (*Sender)(nil)

// NewSender validates config and creates a Sender. A disabled sender accepts
// any config and drops every message.
func NewSender(config Config) (*Sender, error) {
	if config.SMTPPort == 0 {
		config.SMTPPort = defaultPort
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = defaultDialTimeout
	}

	s := &Sender{config: config, now: time.Now}
	if !config.Enabled {
		return s, nil
	}

	if config.SMTPHost == "" {
		return nil, errors.New("email sender: SMTP host is required when enabled")
	}
	if config.FromAddress == "" {
		return nil, errors.New("email sender: from address is required when enabled")
	}
	from, err := mail.ParseAddress(config.FromAddress)
	if err != nil {
		return nil, fmt.Errorf("email sender: invalid from address %q: %w", config.FromAddress, err)
	}
	s.from = from

	if config.SMTPUser != "" && config.SMTPPassword != "" {
		s.auth = smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	}

	slog.Info("email sender configured",
		"smtp_host", config.SMTPHost,
		"smtp_port", config.SMTPPort,
		"from_address", from.Address,
		"auth", s.auth != nil,
	)
	return s, nil
}

// Send delivers n to its single recipient. Failures are wrapped as
// notifications.RetryableError so the Mailer knows whether to try again.
func (s *Sender) Send(ctx context.Context, n notifications.Notification) error {
	if !s.config.Enabled {
		ctxlog.FromContext(ctx).Warn("email sender disabled, dropping message", "subject", n.Subject)
		return nil
	}

	to, err := mail.ParseAddress(n.To)
	if err != nil {
		return notifications.NewNonRetryableError(fmt.Errorf("invalid recipient %q: %w", n.To, err))
	}

	if err := s.deliver(ctx, to.Address, s.buildMessage(to, n.Subject, n.Body)); err != nil {
		if ctx.Err() == nil && IsRetryable(err) {
			return notifications.NewRetryableError(err)
		}
		return notifications.NewNonRetryableError(err)
	}
	return nil
}

func (s *Sender) deliver(ctx context.Context, rcpt string, msg []byte) error {
	addr := net.JoinHostPort(s.config.SMTPHost, strconv.Itoa(s.config.SMTPPort))

	dialer := &net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	// The whole session shares the dial timeout or the context deadline, whichever comes first.
	deadline := time.Now().Add(s.config.DialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(rcpt); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}

	return client.Quit()
}

// buildMessage renders a plain-text UTF-8 message with CRLF line endings.
func (s *Sender) buildMessage(to *mail.Address, subject, body string) []byte {
	var buf bytes.Buffer

	header := func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}
	header("From", s.from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", s.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domainOf(s.from.Address)+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

func domainOf(address string) string {
	if i := strings.LastIndexByte(address, '@'); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}

// IsRetryable reports whether a failed delivery may succeed later: network
// failures and SMTP 4xx replies. 552 (mailbox full) is treated as transient too,
// as RFC 5321 allows.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code/100 == 4 || reply.Code == 552
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
