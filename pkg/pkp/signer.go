package pkp

import (
	"context"
	"crypto"
	"encoding/hex"

	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"golang.org/x/crypto/sha3"
)

// Signer is the capability offered by a delegated key service.
type Signer interface {
	// Alg is the JWS algorithm of the key (EdDSA or ES256).
	Alg() string

	// PublicKey returns the verification key.
	PublicKey() crypto.PublicKey

	// Sign signs msg. It may block on a remote service and must honour ctx.
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

// AddressOf derives the key identity for pub: the last 20 bytes of the
// Keccak-256 hash of the raw public key (X||Y for ECDSA), formatted as
// lowercase 0x-prefixed hex.
func AddressOf(pub crypto.PublicKey) (string, error) {
	raw, err := jwtx.PublicKeyBytes(pub)
	if err != nil {
		return "", err
	}
	if len(raw) == 65 && raw[0] == 0x04 {
		raw = raw[1:]
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(raw)
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:]), nil
}

// Identity returns the address of a signer's key.
func Identity(s Signer) (string, error) {
	return AddressOf(s.PublicKey())
}
