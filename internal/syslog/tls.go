// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package syslog

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrCertificateNotTrusted is returned when a server certificate neither
// chains to a trusted root nor matches a pinned certificate.
var ErrCertificateNotTrusted = errors.New("syslog server certificate is not trusted")

// ParseCertificates decodes every CERTIFICATE block in the given PEM strings.
func ParseCertificates(pemData []string) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for i, data := range pemData {
		rest := []byte(data)
		found := false
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				break
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("certificate %d: %w", i, err)
			}
			certs = append(certs, cert)
			found = true
		}
		if !found {
			return nil, fmt.Errorf("certificate %d: no PEM certificate found", i)
		}
	}
	return certs, nil
}

// tlsConfig builds the client configuration for host. Without pinned
// certificates standard verification applies. With pins, a server is accepted
// when its chain verifies against roots or its leaf equals a pinned certificate.
func tlsConfig(host string, roots *x509.CertPool, pinned []*x509.Certificate) *tls.Config {
	cfg := &tls.Config{
		ServerName: host,
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
	}
	if len(pinned) == 0 {
		return cfg
	}

	// Pinned leaves are accepted without a chain; verifyPinned does the
	// checking.
	cfg.InsecureSkipVerify = true //nolint:gosec // replaced by verifyPinned
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		return verifyPinned(host, rawCerts, roots, pinned)
	}
	return cfg
}

func verifyPinned(host string, rawCerts [][]byte, roots *x509.CertPool, pinned []*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return ErrCertificateNotTrusted
	}
	for _, p := range pinned {
		if bytes.Equal(rawCerts[0], p.Raw) {
			return nil
		}
	}

	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCertificateNotTrusted, err)
	}
	intermediates := x509.NewCertPool()
	for _, raw := range rawCerts[1:] {
		if c, err := x509.ParseCertificate(raw); err == nil {
			intermediates.AddCert(c)
		}
	}
	if _, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         roots,
		Intermediates: intermediates,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrCertificateNotTrusted, err)
	}
	return nil
}
