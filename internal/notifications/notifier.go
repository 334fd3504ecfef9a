// Package notifications renders and delivers account emails: one-time codes and password change notices.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/rxdesk/pharmacy-api/internal/identity"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/rxdesk/pharmacy-api/internal/pkg/metrics"
)

// Sender delivers a rendered notification.
type Sender interface {
	Send(ctx context.Context, notification Notification) error
}

// Mailer implements identity.Notifier.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	retry    RetryConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ identity.Notifier = (*Mailer)(nil)

// NewMailer creates a new Mailer.
func NewMailer(sender Sender, renderer *Renderer, retry RetryConfig) *Mailer {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		retry:    retry,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// SendOTP mails a one-time code for purpose.
func (m *Mailer) SendOTP(ctx context.Context, to, name, code string, purpose identity.OTPPurpose, ttl time.Duration) error {
	msg := MessageTypeLoginOTP
	if purpose == identity.OTPPurposePasswordReset {
		msg = MessageTypePasswordResetOTP
	}

	return m.deliver(ctx, NotificationPayload{
		MessageType: msg,
		Name:        name,
		Email:       to,
		Code:        code,
		ExpiresIn:   ttl,
		GeneratedAt: m.now(),
	})
}

// SendPasswordChanged mails a notice that the account password changed.
func (m *Mailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.deliver(ctx, NotificationPayload{
		MessageType: MessageTypePasswordChanged,
		Name:        name,
		Email:       to,
		GeneratedAt: m.now(),
	})
}

func (m *Mailer) deliver(ctx context.Context, payload NotificationPayload) error {
	subject, body, err := m.renderer.Render(payload)
	if err != nil {
		return fmt.Errorf("render %s: %w", payload.MessageType, err)
	}
	notification := Notification{To: payload.Email, Subject: subject, Body: body}
	log := ctxlog.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err = m.sender.Send(ctx, notification)
		metrics.EmailSendDuration.WithLabelValues(string(payload.MessageType)).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.EmailsSent.WithLabelValues(string(payload.MessageType), "success").Inc()
			return nil
		}

		if !isRetryable(err) || attempt >= m.retry.MaxAttempts {
			metrics.EmailsSent.WithLabelValues(string(payload.MessageType), "failed").Inc()
			return fmt.Errorf("send %s after %d attempt(s): %w", payload.MessageType, attempt, err)
		}

		metrics.EmailsSent.WithLabelValues(string(payload.MessageType), "retry").Inc()
		log.Warn("notification send failed, retrying",
			"message_type", payload.MessageType,
			"attempt", attempt,
			"max_attempts", m.retry.MaxAttempts,
			"error", err,
		)
		if err := m.sleep(ctx, m.retry.backoff(attempt)); err != nil {
			return fmt.Errorf("send %s: %w", payload.MessageType, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
