package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	pemPrivateKey = "PRIVATE KEY"
	pemPublicKey  = "PUBLIC KEY"
)

// GenerateEd25519Key generates a new Ed25519 private key.
// Returns the private key in PEM format (PKCS8).
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}
	return EncodePrivateKeyPEM(privateKey)
}

// GenerateES256Key generates a new ECDSA P-256 private key.
// Returns the private key in PEM format (PKCS8).
func GenerateES256Key() ([]byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate ECDSA key: %w", err)
	}
	return EncodePrivateKeyPEM(privateKey)
}

// EncodePrivateKeyPEM marshals a private key as a PKCS8 PEM block.
func EncodePrivateKeyPEM(key crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
}

// ParsePrivateKeyPEM loads an Ed25519 or P-256 key from PKCS8 PEM.
func ParsePrivateKeyPEM(pemKey []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("cryptox: invalid PEM")
	}
	if block.Type != pemPrivateKey {
		return nil, fmt.Errorf("cryptox: expected PRIVATE KEY, got %q (PKCS8 required)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse PKCS8: %w", err)
	}

	switch k := priv.(type) {
	case ed25519.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return nil, errors.New("cryptox: ECDSA key must use P-256")
		}
		return k, nil
	default:
		return nil, fmt.Errorf("cryptox: unsupported private key type %T", priv)
	}
}

// PublicKeyFromPrivatePEM returns the public half of a PKCS8 PEM private key.
func PublicKeyFromPrivatePEM(pemKey []byte) (crypto.PublicKey, error) {
	signer, err := ParsePrivateKeyPEM(pemKey)
	if err != nil {
		return nil, err
	}
	return signer.Public(), nil
}

// EncodePublicKeyPEM marshals a public key as a PKIX PEM block.
func EncodePublicKeyPEM(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der})), nil
}
