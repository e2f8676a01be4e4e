package truststore

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"buildenv/logging"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/spf13/afero"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// DefaultPassword is the JDK's well-known cacerts password
const DefaultPassword = "changeit"

// Store is an in-memory trust store
type Store interface {
	Format() Format
	// Aliases returns all entry aliases, sorted
	Aliases() []string
	// SetTrustedCertificate adds or replaces the entry under alias
	SetTrustedCertificate(alias string, cert *x509.Certificate) error
	// Certificate returns the DER bytes stored under alias
	Certificate(alias string) ([]byte, bool)
	Encode(w io.Writer, password string) error
}

// LoadStore opens the trust store at path.
// With a nil password it tries DefaultPassword and then an empty one (password-less PKCS12);
// with a password it falls back to empty only when the supplied one fails.
// The password that opened the store is returned alongside it.
func LoadStore(fs afero.Fs, path string, password *string) (Store, string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open keystore: %w", err)
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}
	logging.LogDebug("📦 Keystore format: %s", format)

	candidates := []string{DefaultPassword, ""}
	if password != nil {
		candidates = []string{*password}
		if *password != "" {
			candidates = append(candidates, "")
		}
	}

	var lastErr error
	for i, candidate := range candidates {
		if i > 0 {
			logging.LogDebug("⚠️  Failed to load keystore, retrying with next password candidate...")
		}
		store, err := decodeStore(format, data, candidate)
		if err == nil {
			logging.LogDebug("✅ Loaded existing keystore with %d entries", len(store.Aliases()))
			return store, candidate, nil
		}
		lastErr = err
	}

	return nil, "", fmt.Errorf("failed to load keystore with any password candidate: %w", lastErr)
}

func decodeStore(format Format, data []byte, password string) (Store, error) {
	switch format {
	case FormatJKS:
		ks := keystore.New(keystore.WithOrderedAliases())
		if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
			return nil, fmt.Errorf("failed to decode keystore: %w", err)
		}
		return &jksStore{ks: ks}, nil
	case FormatPKCS12:
		certs, err := pkcs12.DecodeTrustStore(data, password)
		if err != nil {
			return nil, fmt.Errorf("failed to decode keystore: %w", err)
		}
		s := &pkcs12Store{entries: make(map[string]*x509.Certificate, len(certs)), passwordless: password == ""}
		for _, c := range certs {
			s.entries[s.uniqueAlias(c)] = c
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported keystore format: %s", format)
	}
}

type jksStore struct {
	ks keystore.KeyStore
}

func (s *jksStore) Format() Format { return FormatJKS }

func (s *jksStore) Aliases() []string {
	aliases := s.ks.Aliases()
	sort.Strings(aliases)
	return aliases
}

func (s *jksStore) SetTrustedCertificate(alias string, cert *x509.Certificate) error {
	entry := keystore.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate: keystore.Certificate{
			Type:    "X.509",
			Content: cert.Raw,
		},
	}
	if err := s.ks.SetTrustedCertificateEntry(alias, entry); err != nil {
		return fmt.Errorf("failed to add certificate with alias %s: %w", alias, err)
	}
	return nil
}

func (s *jksStore) Certificate(alias string) ([]byte, bool) {
	entry, err := s.ks.GetTrustedCertificateEntry(alias)
	if err != nil {
		return nil, false
	}
	return entry.Certificate.Content, true
}

func (s *jksStore) Encode(w io.Writer, password string) error {
	if err := s.ks.Store(w, []byte(password)); err != nil {
		return fmt.Errorf("failed to encode keystore: %w", err)
	}
	return nil
}

// pkcs12Store keeps certificates by alias. Friendly names are not recovered on
// decode, so loaded entries are keyed by subject DN.
type pkcs12Store struct {
	entries      map[string]*x509.Certificate
	passwordless bool
}

func (s *pkcs12Store) Format() Format { return FormatPKCS12 }

// uniqueAlias keys a decoded certificate by subject DN. Certificates sharing a
// subject, such as re-keyed roots, get a fingerprint suffix so none is dropped.
func (s *pkcs12Store) uniqueAlias(cert *x509.Certificate) string {
	alias := CertificateAlias(cert)
	if _, taken := s.entries[alias]; !taken {
		return alias
	}
	sum := sha256.Sum256(cert.Raw)
	base := fmt.Sprintf("%s [%s]", alias, hex.EncodeToString(sum[:])[:12])
	alias = base
	for n := 2; ; n++ {
		if _, taken := s.entries[alias]; !taken {
			return alias
		}
		alias = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *pkcs12Store) Aliases() []string {
	aliases := make([]string, 0, len(s.entries))
	for alias := range s.entries {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func (s *pkcs12Store) SetTrustedCertificate(alias string, cert *x509.Certificate) error {
	if alias == "" {
		return fmt.Errorf("alias must not be empty")
	}
	s.entries[strings.ToLower(alias)] = cert
	return nil
}

func (s *pkcs12Store) Certificate(alias string) ([]byte, bool) {
	c, ok := s.entries[strings.ToLower(alias)]
	if !ok {
		return nil, false
	}
	return c.Raw, true
}

func (s *pkcs12Store) Encode(w io.Writer, password string) error {
	entries := make([]pkcs12.TrustStoreEntry, 0, len(s.entries))
	for _, alias := range s.Aliases() {
		entries = append(entries, pkcs12.TrustStoreEntry{Cert: s.entries[alias], FriendlyName: alias})
	}

	encoder := pkcs12.Modern
	if password == "" {
		encoder = pkcs12.Passwordless
	}
	data, err := encoder.EncodeTrustStoreEntries(entries, password)
	if err != nil {
		return fmt.Errorf("failed to encode keystore: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// savePassword picks the password the augmented copy is written with.
// A store that was opened password-less without a supplied password stays password-less.
func savePassword(store Store, supplied *string, used string) string {
	if supplied != nil {
		return *supplied
	}
	if p, ok := store.(*pkcs12Store); ok && p.passwordless && used == "" {
		return ""
	}
	return DefaultPassword
}
