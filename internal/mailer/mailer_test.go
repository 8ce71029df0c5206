// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package mailer

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/audittrail/internal/audit"
)

// fakeSMTP is a minimal SMTP server that records one transaction per connection.
type fakeSMTP struct {
	ln net.Listener

	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
	done  chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	s := &fakeSMTP{ln: ln, done: make(chan struct{}, 4)}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { conn.Write([]byte(line + "\r\n")) }

	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.mu.Lock()
			s.from = strings.Trim(cmd[len("MAIL FROM:"):], "<> ")
			s.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.mu.Lock()
			s.rcpts = append(s.rcpts, strings.Trim(cmd[len("RCPT TO:"):], "<> "))
			s.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.data = body.String()
			s.mu.Unlock()
			reply("250 queued")
			s.done <- struct{}{}
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func testRecord(t *testing.T) *audit.Record {
	t.Helper()
	rec, err := audit.NewUserRecord(audit.EventChangePassword,
		audit.Identity{ID: "jdoe", DN: "cn=jdoe,o=org"},
		audit.Source{Address: "10.0.0.1", Host: "ws1"},
		"", "default")
	if err != nil {
		t.Fatalf("NewUserRecord failed: %v", err)
	}
	return rec
}

func TestAuditMessage(t *testing.T) {
	t.Parallel()

	rec := testRecord(t)
	m := AuditMessage(rec, "Audittrail", "audit@example.com", []string{"sec@example.com"})

	if m.Subject != "Audittrail - Audit Event - CHANGE_PASSWORD" {
		t.Errorf("Subject = %q", m.Subject)
	}
	for _, want := range []string{"Change Password (CHANGE_PASSWORD)", "jdoe changed their password", "cn=jdoe,o=org", "10.0.0.1"} {
		if !strings.Contains(m.Body, want) {
			t.Errorf("body missing %q:\n%s", want, m.Body)
		}
	}
	if strings.Contains(m.Body, "Target DN") {
		t.Error("empty fields must be omitted")
	}
}

func TestMessageBuildStripsHeaderInjection(t *testing.T) {
	t.Parallel()

	m := Message{
		From:    "a@example.com",
		To:      []string{"b@example.com"},
		Subject: "hello\r\nBcc: evil@example.com",
		Body:    "line1\nline2",
	}
	out := m.build("Audit", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if strings.Contains(out, "\r\nBcc:") {
		t.Errorf("header injection not neutralized:\n%s", out)
	}
	if !strings.Contains(out, "From: Audit <a@example.com>\r\n") {
		t.Errorf("missing From header:\n%s", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nline1\r\nline2") {
		t.Errorf("body not CRLF normalized:\n%q", out)
	}
}

func TestSMTPSenderDelivers(t *testing.T) {
	srv := startFakeSMTP(t)
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = srv.port()
	cfg.Timeout = 5 * time.Second

	m := AuditMessage(testRecord(t), "Audittrail", "audit@example.com", []string{"a@example.com", "b@example.com"})
	if err := NewSMTPSender(cfg).Send(context.Background(), m); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case <-srv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive DATA")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.from != "audit@example.com" {
		t.Errorf("MAIL FROM = %q", srv.from)
	}
	if len(srv.rcpts) != 2 {
		t.Errorf("RCPT TO = %v, want 2 recipients", srv.rcpts)
	}
	if !strings.Contains(srv.data, "Subject: Audittrail - Audit Event - CHANGE_PASSWORD") {
		t.Errorf("DATA missing subject:\n%s", srv.data)
	}
}

func TestSMTPSenderValidates(t *testing.T) {
	t.Parallel()

	s := NewSMTPSender(DefaultConfig())
	if err := s.Send(context.Background(), Message{From: "a@example.com"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send = %v, want ErrNoRecipients", err)
	}
	if err := s.Send(context.Background(), Message{From: "nope", To: []string{"a@example.com"}}); err == nil {
		t.Error("expected invalid sender error")
	}
}

type countingSender struct {
	mu  sync.Mutex
	n   int
	err error
}

func (c *countingSender) Send(context.Context, Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.err
}

func TestThrottledDropsBeyondBurst(t *testing.T) {
	t.Parallel()

	inner := &countingSender{}
	th := NewThrottled(inner, 1, 2)

	var throttled int
	for i := 0; i < 5; i++ {
		if err := th.Send(context.Background(), Message{}); errors.Is(err, ErrThrottled) {
			throttled++
		}
	}
	if inner.n != 2 || throttled != 3 {
		t.Errorf("delivered %d, throttled %d; want 2 and 3", inner.n, throttled)
	}
}

func TestThrottledPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	th := NewThrottled(&countingSender{err: boom}, 60, 1)
	if err := th.Send(context.Background(), Message{}); !errors.Is(err, boom) {
		t.Errorf("Send = %v, want boom", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(DefaultConfig())
	if err != nil || s != nil {
		t.Errorf("New without host = %v, %v; want nil, nil", s, err)
	}

	cfg := DefaultConfig()
	cfg.Host = "mail.example.com"
	cfg.Burst = 0
	var ce *ConfigError
	if _, err := New(cfg); !errors.As(err, &ce) {
		t.Errorf("New = %v, want ConfigError", err)
	}

	cfg.Burst = 1
	if s, err := New(cfg); err != nil || s == nil {
		t.Errorf("New = %v, %v; want sender", s, err)
	}
}
