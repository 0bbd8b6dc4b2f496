// Package auth verifies bearer JWTs presented to the publisher server.
package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jhaveripatric/webagents/internal/config"
)

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Verifier validates ES256 JWTs against a set of public keys.
type Verifier struct {
	publicKeys map[string]*ecdsa.PublicKey // kid -> key
	issuer     string
	audience   string
}

// Claims are the claims a manifest client presents.
type Claims struct {
	Client string `json:"client,omitempty"`
	jwt.RegisteredClaims
}

// NewVerifier creates a verifier and loads every key in cfg.
func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	v := &Verifier{
		publicKeys: make(map[string]*ecdsa.PublicKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
	for kid, path := range cfg.Keys {
		if err := v.LoadPublicKey(kid, path); err != nil {
			return nil, fmt.Errorf("key %s: %w", kid, err)
		}
	}
	if len(v.publicKeys) == 0 {
		return nil, errors.New("no public keys configured")
	}
	return v, nil
}

// LoadPublicKey loads a PEM-encoded ECDSA public key from a file.
func (v *Verifier) LoadPublicKey(keyID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	pub, err := ParsePublicKey(data)
	if err != nil {
		return err
	}
	v.AddKey(keyID, pub)
	return nil
}

// AddKey registers pub under keyID.
func (v *Verifier) AddKey(keyID string, pub *ecdsa.PublicKey) {
	v.publicKeys[keyID] = pub
}

// ParsePublicKey decodes a PEM PKIX ECDSA public key.
func ParsePublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA public key")
	}
	return ecdsaPub, nil
}

// Verify validates a JWT and returns its claims. Issuer and audience are
// checked when configured.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"ES256"}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (any, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("missing kid in header")
	}

	key, ok := v.publicKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown kid: %s", kid)
	}
	return key, nil
}
