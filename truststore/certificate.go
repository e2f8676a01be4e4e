package truststore

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ReadCertificate reads a single PEM or DER encoded X.509 certificate from path
func ReadCertificate(fs afero.Fs, path string) (*x509.Certificate, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	return ParseCertificate(data)
}

// ParseCertificate decodes exactly one certificate.
// PEM input must hold a single CERTIFICATE block; anything else is tried as DER.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("certificate file is empty")
	}

	der := data
	if block, rest := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("PEM block is not a certificate (type: %s)", block.Type)
		}
		if next, _ := pem.Decode(rest); next != nil {
			return nil, fmt.Errorf("expected a single certificate, found another PEM block (type: %s)", next.Type)
		}
		der = block.Bytes
	} else if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse X.509 certificate: %w", err)
	}
	return cert, nil
}

// CertificateAlias is the alias a certificate is stored under: its subject DN,
// lower-cased like Java key stores do.
func CertificateAlias(cert *x509.Certificate) string {
	return strings.ToLower(cert.Subject.String())
}
