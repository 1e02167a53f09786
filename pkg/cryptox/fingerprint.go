package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a deterministic SHA-256 fingerprint of a token, safe to
// log or index in place of the token itself.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
