// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package mailer sends audit alert emails over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/metrics"
)

// ErrThrottled is returned when an alert exceeds the configured rate.
var ErrThrottled = errors.New("alert email rate limit exceeded")

// ErrNoRecipients is returned for a message without recipients.
var ErrNoRecipients = errors.New("email has no recipients")

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender delivers email through one SMTP server.
type SMTPSender struct {
	config Config
	now    func() time.Time
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{config: cfg, now: time.Now}
}

// Send delivers m to every recipient in one SMTP transaction.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if err := ValidateAddress(m.From); err != nil {
		return err
	}
	for _, to := range m.To {
		if err := ValidateAddress(to); err != nil {
			return err
		}
	}
	return s.sendSMTP(ctx, m.From, m.To, m.build(s.config.FromName, s.now()))
}

func (s *SMTPSender) sendSMTP(ctx context.Context, from string, to []string, msg string) error {
	cfg := s.config
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if cfg.StartTLS {
		tlsConfig := &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if cfg.Username != "" && cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA completes.
	_ = client.Quit()
	return nil
}

// Throttled drops messages that exceed a token-bucket rate instead of
// queueing them.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled wraps next with a limit of perMinute messages and the given burst.
func NewThrottled(next Sender, perMinute float64, burst int) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
	}
}

// Send forwards m if the rate allows it.
func (t *Throttled) Send(ctx context.Context, m Message) error {
	if !t.limiter.Allow() {
		metrics.RecordEmailSend("throttled")
		logging.Ctx(ctx).Warn().Str("subject", m.Subject).Msg("Alert email throttled")
		return ErrThrottled
	}
	if err := t.next.Send(ctx, m); err != nil {
		metrics.RecordEmailSend("failure")
		return err
	}
	metrics.RecordEmailSend("success")
	return nil
}

// New returns the configured sender: SMTP behind a throttle, or nil when no
// SMTP host is set.
func New(cfg Config) (Sender, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewThrottled(NewSMTPSender(cfg), cfg.RatePerMinute, cfg.Burst), nil
}
