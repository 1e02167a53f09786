package pkp

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("pkp: invalid mnemonic")

// Local is an in-process signer. The private key never leaves this value.
type Local struct {
	alg    string
	method jwt.SigningMethod
	key    crypto.Signer
}

// NewLocal loads a PKCS8 PEM private key. Ed25519 keys sign with EdDSA and
// P-256 keys with ES256.
func NewLocal(pemKey []byte) (*Local, error) {
	key, err := cryptox.ParsePrivateKeyPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("pkp: %w", err)
	}
	return newLocal(key)
}

// NewLocalFromMnemonic derives an Ed25519 key from a BIP-39 mnemonic. The
// same mnemonic always yields the same key.
func NewLocalFromMnemonic(mnemonic string) (*Local, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	return newLocal(ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]))
}

// NewMnemonic creates a fresh 24-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func newLocal(key crypto.Signer) (*Local, error) {
	alg, err := jwtx.AlgForKey(key.Public())
	if err != nil {
		return nil, fmt.Errorf("pkp: %w", err)
	}
	method, err := jwtx.Method(alg)
	if err != nil {
		return nil, fmt.Errorf("pkp: %w", err)
	}
	return &Local{alg: alg, method: method, key: key}, nil
}

func (l *Local) Alg() string                 { return l.alg }
func (l *Local) PublicKey() crypto.PublicKey { return l.key.Public() }

// Sign produces a JWS-encoded signature over msg.
func (l *Local) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.method.Sign(string(msg), l.key)
}
