package truststore

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

var serial int64

func newCert(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial++
	tpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func pemBytes(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

func jksBytes(t *testing.T, password string, entries map[string]*x509.Certificate) []byte {
	t.Helper()
	ks := keystore.New()
	for alias, cert := range entries {
		require.NoError(t, ks.SetTrustedCertificateEntry(alias, keystore.TrustedCertificateEntry{
			CreationTime: time.Now(),
			Certificate:  keystore.Certificate{Type: "X.509", Content: cert.Raw},
		}))
	}
	var buf bytes.Buffer
	require.NoError(t, ks.Store(&buf, []byte(password)))
	return buf.Bytes()
}

// pkcs12Bytes encodes certs the way the JDK names cacerts entries ("<name> [jdk]")
func pkcs12Bytes(t *testing.T, password string, certs ...*x509.Certificate) []byte {
	t.Helper()
	return encodePKCS12(t, pkcs12.Modern, password, certs)
}

func passwordlessBytes(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()
	return encodePKCS12(t, pkcs12.Passwordless, "", certs)
}

func encodePKCS12(t *testing.T, enc *pkcs12.Encoder, password string, certs []*x509.Certificate) []byte {
	t.Helper()
	entries := make([]pkcs12.TrustStoreEntry, 0, len(certs))
	for i, c := range certs {
		name := fmt.Sprintf("%s-g%d [jdk]", strings.ReplaceAll(strings.ToLower(c.Subject.CommonName), " ", ""), i+1)
		entries = append(entries, pkcs12.TrustStoreEntry{Cert: c, FriendlyName: name})
	}
	data, err := enc.EncodeTrustStoreEntries(entries, password)
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte, mtime time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

// countingFs counts every call that mutates the filesystem
type countingFs struct {
	afero.Fs
	writes int
}

func (c *countingFs) Create(name string) (afero.File, error) {
	c.writes++
	return c.Fs.Create(name)
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		c.writes++
	}
	return c.Fs.OpenFile(name, flag, perm)
}

func (c *countingFs) Mkdir(name string, perm os.FileMode) error {
	c.writes++
	return c.Fs.Mkdir(name, perm)
}

func (c *countingFs) MkdirAll(path string, perm os.FileMode) error {
	c.writes++
	return c.Fs.MkdirAll(path, perm)
}

func (c *countingFs) Remove(name string) error {
	c.writes++
	return c.Fs.Remove(name)
}

func (c *countingFs) RemoveAll(path string) error {
	c.writes++
	return c.Fs.RemoveAll(path)
}

func (c *countingFs) Rename(oldname, newname string) error {
	c.writes++
	return c.Fs.Rename(oldname, newname)
}

func (c *countingFs) Chmod(name string, mode os.FileMode) error {
	c.writes++
	return c.Fs.Chmod(name, mode)
}

func (c *countingFs) Chtimes(name string, atime, mtime time.Time) error {
	c.writes++
	return c.Fs.Chtimes(name, atime, mtime)
}

// failingWriteFs hands out files whose writes fail, as a full disk would
type failingWriteFs struct {
	afero.Fs
}

type failingFile struct {
	afero.File
}

func (f failingFile) Write(p []byte) (int, error) {
	return 0, errDiskFull
}

var errDiskFull = &os.PathError{Op: "write", Path: "tmp", Err: os.ErrInvalid}

func (f *failingWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return file, err
	}
	return failingFile{file}, nil
}

// noRenameFs rejects renames the way a cross-device move does
type noRenameFs struct {
	afero.Fs
	renames int
}

func (n *noRenameFs) Rename(oldname, newname string) error {
	n.renames++
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
}

// noChmodFs fails every chmod
type noChmodFs struct {
	afero.Fs
}

func (n *noChmodFs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: os.ErrPermission}
}


// interruptedCopyFs rejects renames and cuts the first write to target short,
// like a disk filling up halfway through a copy
type interruptedCopyFs struct {
	afero.Fs
	target      string
	interrupted bool
}

func (f *interruptedCopyFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
}

func (f *interruptedCopyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || name != f.target || f.interrupted || flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return file, err
	}
	f.interrupted = true
	return &shortFile{File: file}, nil
}

type shortFile struct {
	afero.File
}

func (s *shortFile) Write(p []byte) (int, error) {
	n, _ := s.File.Write(p[:len(p)/2])
	return n, errDiskFull
}

// ReadFrom hides the wrapped file's ReadFrom so io.Copy goes through Write
func (s *shortFile) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(struct{ io.Writer }{s}, r)
}
