package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
	"time"
)

var (
	// ErrInvalidKey is returned when PEM or key type is invalid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyMismatch is returned when the public key does not belong to the private key.
	ErrKeyMismatch = errors.New("public key does not match private key")
	// ErrNoSigningKey is returned when neither a key pair nor a secret is configured.
	ErrNoSigningKey = errors.New("JWT_PRIVATE_KEY/JWT_PUBLIC_KEY or JWT_SECRET must be set")
)

// LoadPEM returns s as bytes when it is inline PEM (literal "\n" sequences from env files are
// expanded); otherwise it reads s as a file path.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA P-256; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	default:
		return ""
	}
}

type equaler interface {
	Equal(crypto.PublicKey) bool
}

// TokenSettings selects how LoadTokenProvider signs tokens.
type TokenSettings struct {
	PrivateKey string
	PublicKey  string
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

// LoadTokenProvider builds a TokenProvider from a key pair when both keys are set, otherwise
// from the HS256 secret. The key pair must match.
func LoadTokenProvider(s TokenSettings) (*TokenProvider, error) {
	if s.PrivateKey != "" && s.PublicKey != "" {
		signer, err := ParsePrivateKey(s.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := ParsePublicKey(s.PublicKey)
		if err != nil {
			return nil, err
		}
		if KeyAlg(pub) == "" {
			return nil, ErrInvalidKey
		}
		if eq, ok := signer.Public().(equaler); ok && !eq.Equal(pub) {
			return nil, ErrKeyMismatch
		}
		return NewTokenProvider(signer, pub, s.Issuer, s.Audience, s.AccessTTL), nil
	}
	if s.Secret != "" {
		return NewHMACTokenProvider([]byte(s.Secret), s.Issuer, s.Audience, s.AccessTTL)
	}
	return nil, ErrNoSigningKey
}
