// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

// Package syslog delivers framed audit messages to one or more syslog
// collectors over UDP, TCP or TLS.
//
// Targets are tried in configuration order and the first successful write
// wins. Each target has its own circuit breaker so a dead collector costs one
// fast rejection instead of a dial timeout per message. Client implements
// workqueue.Processor: a message that no target accepts is retried by the
// delivery queue.
package syslog

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/audittrail/internal/logging"
	"github.com/tomtom215/audittrail/internal/metrics"
	"github.com/tomtom215/audittrail/internal/workqueue"
)

// ErrNoTargets is returned by Send when no target is configured.
var ErrNoTargets = errors.New("no syslog targets configured")

// Client sends messages to the configured targets.
type Client struct {
	config  Config
	senders []*sender
	logger  zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	lastErr   error
	lastErrAt time.Time
}

var _ workqueue.Processor = (*Client)(nil)

// New creates a client. TLS targets trust the system roots plus any
// certificates in cfg.Certificates.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	targets, err := cfg.ParseTargets()
	if err != nil {
		return nil, err
	}
	pinned, err := ParseCertificates(cfg.Certificates)
	if err != nil {
		return nil, fmt.Errorf("syslog certificates: %w", err)
	}

	c := &Client{
		config: cfg,
		logger: logging.WithComponent("syslog"),
		now:    time.Now,
	}
	for _, t := range targets {
		s := &sender{
			target:       t,
			name:         t.String(),
			dialTimeout:  cfg.DialTimeout,
			writeTimeout: cfg.WriteTimeout,
			breaker:      newBreaker(t.String(), cfg),
		}
		if t.Protocol == ProtocolTLS {
			s.tls = tlsConfig(t.Host, nil, pinned)
		}
		c.senders = append(c.senders, s)
	}

	c.logger.Info().Int("targets", len(targets)).Int("pinned_certificates", len(pinned)).Msg("Syslog client configured")
	return c, nil
}

// Targets returns the configured targets in failover order.
func (c *Client) Targets() []Target {
	out := make([]Target, len(c.senders))
	for i, s := range c.senders {
		out[i] = s.target
	}
	return out
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Send writes msg to the first target that accepts it.
func (c *Client) Send(ctx context.Context, msg string) error {
	if len(c.senders) == 0 {
		return ErrNoTargets
	}

	var errs []error
	for _, s := range c.senders {
		err := s.send(ctx, msg)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	err := errors.Join(errs...)
	c.mu.Lock()
	c.lastErr = err
	c.lastErrAt = c.now()
	c.mu.Unlock()
	return err
}

// Process implements workqueue.Processor.
func (c *Client) Process(ctx context.Context, item string) workqueue.Result {
	if err := c.Send(ctx, item); err != nil {
		if errors.Is(err, ErrNoTargets) {
			c.logger.Warn().Msg("Dropping syslog message, no targets configured")
			return workqueue.Success
		}
		c.logger.Debug().Err(err).Msg("Syslog delivery failed on every target")
		return workqueue.Retry
	}
	return workqueue.Success
}

// LastError returns when the most recent delivery failure happened and the
// failure itself. A zero time means no failure has been recorded.
func (c *Client) LastError() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrAt, c.lastErr
}

// Close closes open connections.
func (c *Client) Close() error {
	var errs []error
	for _, s := range c.senders {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sender owns the connection to one target.
type sender struct {
	target       Target
	name         string
	tls          *tls.Config
	dialTimeout  time.Duration
	writeTimeout time.Duration
	breaker      *gobreaker.CircuitBreaker[struct{}]

	mu   sync.Mutex
	conn net.Conn
}

func (s *sender) send(ctx context.Context, msg string) error {
	start := time.Now()
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.write(ctx, msg)
	})

	switch {
	case err == nil:
		metrics.RecordSyslogSend(s.name, "success", time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordSyslogSend(s.name, "rejected", 0)
	default:
		metrics.RecordSyslogSend(s.name, "failure", time.Since(start))
	}
	return err
}

func (s *sender) write(ctx context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.dial(ctx)
		if err != nil {
			return err
		}
		s.conn = conn
	}

	payload := []byte(msg)
	if s.target.Protocol != ProtocolUDP {
		payload = append(payload, '\n')
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		s.resetLocked()
		return err
	}
	if _, err := s.conn.Write(payload); err != nil {
		s.resetLocked()
		return err
	}
	return nil
}

func (s *sender) dial(ctx context.Context) (net.Conn, error) {
	nd := &net.Dialer{Timeout: s.dialTimeout}
	switch s.target.Protocol {
	case ProtocolTLS:
		td := &tls.Dialer{NetDialer: nd, Config: s.tls}
		return td.DialContext(ctx, "tcp", s.target.Address())
	case ProtocolTCP:
		return nd.DialContext(ctx, "tcp", s.target.Address())
	default:
		return nd.DialContext(ctx, "udp", s.target.Address())
	}
}

func (s *sender) resetLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *sender) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
