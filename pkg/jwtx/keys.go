package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Supported signature algorithms.
const (
	AlgEdDSA = "EdDSA"
	AlgES256 = "ES256"
)

// Method returns the golang-jwt signing method for alg. Only EdDSA and ES256
// are accepted.
func Method(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case AlgEdDSA:
		return jwt.SigningMethodEdDSA, nil
	case AlgES256:
		return jwt.SigningMethodES256, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}

// AlgForKey reports which algorithm a public key verifies.
func AlgForKey(pub crypto.PublicKey) (string, error) {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		if len(k) != ed25519.PublicKeySize {
			return "", ErrInvalidKey
		}
		return AlgEdDSA, nil
	case *ecdsa.PublicKey:
		if k == nil || k.Curve != elliptic.P256() {
			return "", fmt.Errorf("%w: ecdsa key must use P-256", ErrInvalidKey)
		}
		return AlgES256, nil
	default:
		return "", fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, pub)
	}
}

// VerifySignature checks the token signature with pub. The token's alg must
// match the key type.
func VerifySignature(t *Token, pub crypto.PublicKey) error {
	alg, err := AlgForKey(pub)
	if err != nil {
		return err
	}
	if t.Alg != alg {
		return fmt.Errorf("%w: token %s, key %s", ErrAlgMismatch, t.Alg, alg)
	}

	method, err := Method(alg)
	if err != nil {
		return err
	}
	if err := method.Verify(t.SigningInput(), t.Signature, pub); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	return nil
}

// ParsePublicKey accepts a PKIX PEM block, or hex (optionally 0x-prefixed)
// holding either a raw 32-byte Ed25519 key or a 65-byte uncompressed P-256 point.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	if strings.HasPrefix(s, "-----BEGIN") {
		block, _ := pem.Decode([]byte(s))
		if block == nil {
			return nil, fmt.Errorf("%w: bad PEM", ErrInvalidKey)
		}
		if block.Type != "PUBLIC KEY" {
			return nil, fmt.Errorf("%w: expected PUBLIC KEY, got %q", ErrInvalidKey, block.Type)
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if _, err := AlgForKey(pub); err != nil {
			return nil, err
		}
		return pub, nil
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("%w: not PEM or hex", ErrInvalidKey)
	}
	switch len(raw) {
	case ed25519.PublicKeySize:
		return ed25519.PublicKey(raw), nil
	case 65:
		pub, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return pub, nil
	default:
		return nil, errors.Join(ErrInvalidKey, fmt.Errorf("unexpected key length %d", len(raw)))
	}
}

// PublicKeyBytes returns the raw key encoding used by ParsePublicKey's hex
// form.
func PublicKeyBytes(pub crypto.PublicKey) ([]byte, error) {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		return []byte(k), nil
	case *ecdsa.PublicKey:
		return k.Bytes()
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, pub)
	}
}
