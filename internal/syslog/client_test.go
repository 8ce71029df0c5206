// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package syslog

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/audittrail/internal/workqueue"
)

// lineServer accepts stream connections and forwards every received line.
type lineServer struct {
	ln    net.Listener
	lines chan string
}

func startLineServer(t *testing.T, ln net.Listener) *lineServer {
	t.Helper()
	s := &lineServer{ln: ln, lines: make(chan string, 16)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				sc := bufio.NewScanner(c)
				for sc.Scan() {
					s.lines <- sc.Text()
				}
			}(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *lineServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *lineServer) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-s.lines:
		if got != want {
			t.Fatalf("received %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func tcpListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	return ln
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln := tcpListener(t)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func newTestClient(t *testing.T, targets ...string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Targets = targets
	cfg.DialTimeout = time.Second
	cfg.WriteTimeout = time.Second
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientSendsOverTCP(t *testing.T) {
	srv := startLineServer(t, tcpListener(t))
	c := newTestClient(t, fmt.Sprintf("tcp,127.0.0.1,%d", srv.port()))

	if res := c.Process(context.Background(), "first"); res != workqueue.Success {
		t.Fatalf("Process = %v, want success", res)
	}
	c.Process(context.Background(), "second")

	srv.expect(t, "first")
	srv.expect(t, "second")

	if at, err := c.LastError(); !at.IsZero() || err != nil {
		t.Errorf("LastError = %v at %v, want none", err, at)
	}
}

func TestClientSendsOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp failed: %v", err)
	}
	defer pc.Close()

	c := newTestClient(t, fmt.Sprintf("udp,127.0.0.1,%d", pc.LocalAddr().(*net.UDPAddr).Port))
	if err := c.Send(context.Background(), "<110>1 datagram"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	buf := make([]byte, 1024)
	pc.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if got := string(buf[:n]); got != "<110>1 datagram" {
		t.Errorf("datagram = %q, want no trailing newline", got)
	}
}

func TestClientFailsOverToNextTarget(t *testing.T) {
	srv := startLineServer(t, tcpListener(t))
	c := newTestClient(t,
		fmt.Sprintf("tcp,127.0.0.1,%d", closedPort(t)),
		fmt.Sprintf("tcp,127.0.0.1,%d", srv.port()),
	)

	if res := c.Process(context.Background(), "failover"); res != workqueue.Success {
		t.Fatalf("Process = %v, want success", res)
	}
	srv.expect(t, "failover")
}

func TestClientAllTargetsFailing(t *testing.T) {
	c := newTestClient(t,
		fmt.Sprintf("tcp,127.0.0.1,%d", closedPort(t)),
		fmt.Sprintf("tcp,127.0.0.1,%d", closedPort(t)),
	)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	if res := c.Process(context.Background(), "lost"); res != workqueue.Retry {
		t.Fatalf("Process = %v, want retry", res)
	}
	at, err := c.LastError()
	if err == nil || !at.Equal(fixed) {
		t.Errorf("LastError = %v at %v, want error at %v", err, at, fixed)
	}
}

func TestClientBreakerOpensAfterFailures(t *testing.T) {
	port := closedPort(t)
	cfg := DefaultConfig()
	cfg.Targets = []string{fmt.Sprintf("tcp,127.0.0.1,%d", port)}
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Hour
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Send(ctx, "a")
	c.Send(ctx, "b")
	if st := c.senders[0].breaker.State(); st != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", st)
	}
	if err := c.Send(ctx, "c"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Send with open breaker = %v, want ErrOpenState", err)
	}
}

func TestClientNoTargets(t *testing.T) {
	c := newTestClient(t)
	if err := c.Send(context.Background(), "x"); !errors.Is(err, ErrNoTargets) {
		t.Errorf("Send = %v, want ErrNoTargets", err)
	}
	if res := c.Process(context.Background(), "x"); res != workqueue.Success {
		t.Errorf("Process = %v, want success (dropped)", res)
	}
}

// selfSigned returns a TLS certificate for 127.0.0.1 and its PEM encoding.
func selfSigned(t *testing.T) (tls.Certificate, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "syslog-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate failed: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, string(pemData)
}

func startTLSServer(t *testing.T, cert tls.Certificate) *lineServer {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("tls listen failed: %v", err)
	}
	return startLineServer(t, ln)
}

func TestClientTLSPinnedCertificate(t *testing.T) {
	cert, pemData := selfSigned(t)
	srv := startTLSServer(t, cert)

	cfg := DefaultConfig()
	cfg.Targets = []string{fmt.Sprintf("tls,127.0.0.1,%d", srv.port())}
	cfg.Certificates = []string{pemData}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.Send(context.Background(), "pinned"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	srv.expect(t, "pinned")
}

func TestClientTLSRejectsUntrustedCertificate(t *testing.T) {
	cert, _ := selfSigned(t)
	srv := startTLSServer(t, cert)

	_, otherPEM := selfSigned(t)
	c := newTestClient(t, fmt.Sprintf("tls,127.0.0.1,%d", srv.port()))
	if err := c.Send(context.Background(), "x"); err == nil {
		t.Fatal("expected handshake failure without pinning")
	}

	cfg := DefaultConfig()
	cfg.Targets = []string{fmt.Sprintf("tls,127.0.0.1,%d", srv.port())}
	cfg.Certificates = []string{otherPEM}
	pinnedOther, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer pinnedOther.Close()
	err = pinnedOther.Send(context.Background(), "x")
	if !errors.Is(err, ErrCertificateNotTrusted) {
		t.Errorf("Send = %v, want ErrCertificateNotTrusted", err)
	}
}

func TestParseCertificates(t *testing.T) {
	_, pemData := selfSigned(t)

	certs, err := ParseCertificates([]string{pemData + pemData})
	if err != nil || len(certs) != 2 {
		t.Fatalf("ParseCertificates = %d certs, %v", len(certs), err)
	}
	if _, err := ParseCertificates([]string{"not pem"}); err == nil {
		t.Error("expected error for non-PEM input")
	}
}
