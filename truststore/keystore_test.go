package truststore

import (
	"bytes"
	"crypto/x509"
	"strings"
	"testing"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLoadStorePasswordCandidates(t *testing.T) {
	ca := newCert(t, "ca")

	tests := []struct {
		name     string
		data     func() []byte
		password *string
		wantUsed string
		wantErr  bool
		alias    string
	}{
		{
			name:     "Unset password uses changeit",
			data:     func() []byte { return jksBytes(t, DefaultPassword, map[string]*x509.Certificate{"ca": ca}) },
			wantUsed: DefaultPassword,
			alias:    "ca",
		},
		{
			name:     "Unset password opens password-less PKCS12",
			data:     func() []byte { return passwordlessBytes(t, ca) },
			wantUsed: "",
			alias:    "cn=ca",
		},
		{
			name:     "Supplied password",
			data:     func() []byte { return pkcs12Bytes(t, "s3cret", ca) },
			password: strPtr("s3cret"),
			wantUsed: "s3cret",
			alias:    "cn=ca",
		},
		{
			name:     "Supplied password falls back to empty",
			data:     func() []byte { return passwordlessBytes(t, ca) },
			password: strPtr("s3cret"),
			wantUsed: "",
			alias:    "cn=ca",
		},
		{
			name:     "Wrong password",
			data:     func() []byte { return pkcs12Bytes(t, DefaultPassword, ca) },
			password: strPtr("wrong"),
			wantErr:  true,
		},
		{
			name:    "Not a keystore",
			data:    func() []byte { return []byte("definitely not a keystore") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "/cacerts", tt.data(), time.Now())

			store, used, err := LoadStore(fs, "/cacerts", tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsed, used)
			assert.Equal(t, []string{tt.alias}, store.Aliases())
		})
	}
}

func TestSavePassword(t *testing.T) {
	ca := newCert(t, "ca")
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/open.p12", passwordlessBytes(t, ca), time.Now())

	store, used, err := LoadStore(fs, "/open.p12", nil)
	require.NoError(t, err)
	assert.Equal(t, "", savePassword(store, nil, used))
	assert.Equal(t, "pw", savePassword(store, strPtr("pw"), used))

	jks := &jksStore{ks: keystore.New()}
	assert.Equal(t, DefaultPassword, savePassword(jks, nil, DefaultPassword))
}

func TestStoreRoundTrip(t *testing.T) {
	empty := map[Format]func() Store{
		FormatJKS:    func() Store { return &jksStore{ks: keystore.New(keystore.WithOrderedAliases())} },
		FormatPKCS12: func() Store { return &pkcs12Store{entries: make(map[string]*x509.Certificate)} },
	}
	for format, newStore := range empty {
		t.Run(string(format), func(t *testing.T) {
			ca := newCert(t, "Round Trip CA")
			store := newStore()
			require.NoError(t, store.SetTrustedCertificate(CertificateAlias(ca), ca))

			var buf bytes.Buffer
			require.NoError(t, store.Encode(&buf, DefaultPassword))

			reloaded, err := decodeStore(format, buf.Bytes(), DefaultPassword)
			require.NoError(t, err)
			assert.Equal(t, []string{"cn=round trip ca"}, reloaded.Aliases())

			raw, ok := reloaded.Certificate("cn=round trip ca")
			require.True(t, ok)
			assert.Equal(t, ca.Raw, raw)
		})
	}
}

func TestDecodePKCS12SharedSubject(t *testing.T) {
	g1 := newCert(t, "Shared Root")
	g2 := newCert(t, "Shared Root")

	store, err := decodeStore(FormatPKCS12, pkcs12Bytes(t, DefaultPassword, g1, g2, g2), DefaultPassword)
	require.NoError(t, err)

	aliases := store.Aliases()
	require.Len(t, aliases, 3)
	assert.Equal(t, "cn=shared root", aliases[0])
	for _, alias := range aliases[1:] {
		assert.True(t, strings.HasPrefix(alias, "cn=shared root ["), alias)
	}

	raw, ok := store.Certificate("cn=shared root")
	require.True(t, ok)
	assert.Equal(t, g1.Raw, raw)
}
