package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/webagents/internal/config"
)

func generateKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func sign(t *testing.T, key *ecdsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	return Claims{
		Client: "shopper",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://auth.example",
			Audience:  jwt.ClaimStrings{"webagents"},
			Subject:   "agent-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestNewVerifierLoadsKeys(t *testing.T) {
	_, pemBytes := generateKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "k1.pem")
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	v, err := NewVerifier(config.JWTConfig{Keys: map[string]string{"k1": path}})
	require.NoError(t, err)
	assert.Len(t, v.publicKeys, 1)

	_, err = NewVerifier(config.JWTConfig{Keys: map[string]string{"k1": filepath.Join(dir, "missing.pem")}})
	assert.Error(t, err)

	_, err = NewVerifier(config.JWTConfig{})
	assert.Error(t, err)
}

func TestParsePublicKey(t *testing.T) {
	_, pemBytes := generateKey(t)
	_, err := ParsePublicKey(pemBytes)
	require.NoError(t, err)

	_, err = ParsePublicKey([]byte("not pem"))
	assert.Error(t, err)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	require.NoError(t, err)
	_, err = ParsePublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	assert.ErrorContains(t, err, "not an ECDSA public key")
}

func TestVerify(t *testing.T) {
	key, pemBytes := generateKey(t)
	pub, err := ParsePublicKey(pemBytes)
	require.NoError(t, err)

	v := &Verifier{publicKeys: map[string]*ecdsa.PublicKey{}, issuer: "https://auth.example", audience: "webagents"}
	v.AddKey("k1", pub)

	claims, err := v.Verify(sign(t, key, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "shopper", claims.Client)
	assert.Equal(t, "agent-1", claims.Subject)

	tests := []struct {
		name   string
		kid    string
		mutate func(*Claims)
	}{
		{"unknown kid", "k2", func(*Claims) {}},
		{"wrong issuer", "k1", func(c *Claims) { c.Issuer = "https://evil.example" }},
		{"wrong audience", "k1", func(c *Claims) { c.Audience = jwt.ClaimStrings{"other"} }},
		{"expired", "k1", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }},
		{"no expiry", "k1", func(c *Claims) { c.ExpiresAt = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			tt.mutate(&c)

			_, err := v.Verify(sign(t, key, tt.kid, c))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("other key", func(t *testing.T) {
		other, _ := generateKey(t)
		_, err := v.Verify(sign(t, other, "k1", validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("hmac rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = v.Verify(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer  abc ", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer", "", true},
		{"Bearer   ", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}

		got, err := ExtractToken(r)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got)
	}
}

func TestClaimsContext(t *testing.T) {
	assert.Nil(t, ClaimsFrom(context.Background()))

	c := &Claims{Client: "x"}
	assert.Same(t, c, ClaimsFrom(WithClaims(context.Background(), c)))
}
