package jwtx

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TypeJWT is the fixed "typ" header value.
const TypeJWT = "JWT"

var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrNonCanonical   = errors.New("jwtx: non-canonical encoding")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
	ErrAlgMismatch    = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig     = errors.New("jwtx: invalid signature")
	ErrInvalidKey     = errors.New("jwtx: invalid public key")

	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrMissingClaim = errors.New("jwtx: missing claim")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrUnencodable  = errors.New("jwtx: claims are not serializable")
)

var segmentEncoding = base64.RawURLEncoding

// Token is a decoded compact credential.
type Token struct {
	Alg       string
	Claims    Claims
	Signature []byte

	// Raw is the compact form header.claims.signature.
	Raw string

	signingInput string
}

// SigningInput returns the exact bytes the signature covers.
func (t *Token) SigningInput() string { return t.signingInput }

// canonicalJSON marshals v with sorted object keys. encoding/json already sorts
// map keys, so every object on the wire goes through a map.
func canonicalJSON(v map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return b, nil
}

func headerMap(alg string) map[string]any {
	return map[string]any{"alg": alg, "typ": TypeJWT}
}

// SigningInput canonically encodes header and claims and returns
// base64url(header) "." base64url(claims).
func SigningInput(alg string, c Claims) (string, error) {
	if alg == "" {
		return "", fmt.Errorf("%w: empty alg", ErrUnsupportedAlg)
	}
	h, err := canonicalJSON(headerMap(alg))
	if err != nil {
		return "", err
	}
	body, err := canonicalJSON(c.Map())
	if err != nil {
		return "", err
	}
	return segmentEncoding.EncodeToString(h) + "." + segmentEncoding.EncodeToString(body), nil
}

// Assemble appends the encoded signature to a signing input.
func Assemble(signingInput string, sig []byte) string {
	return signingInput + "." + segmentEncoding.EncodeToString(sig)
}

// Parse decodes a compact token without checking its signature. Header and
// claims must be in canonical form, so re-encoding the decoded claims yields
// the same bytes that were signed.
func Parse(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want 3 segments, got %d", ErrMalformed, len(parts))
	}

	headerRaw, err := segmentEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	claimsRaw, err := segmentEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrMalformed, err)
	}
	sig, err := segmentEncoding.DecodeString(parts[2])
	if err != nil || len(sig) == 0 {
		return nil, fmt.Errorf("%w: signature", ErrMalformed)
	}

	header, err := decodeObject(headerRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	alg, _ := header["alg"].(string)
	if alg == "" {
		return nil, fmt.Errorf("%w: missing alg", ErrMalformed)
	}
	if typ, _ := header["typ"].(string); typ != TypeJWT || len(header) != 2 {
		return nil, fmt.Errorf("%w: unexpected header", ErrMalformed)
	}

	claimsMap, err := decodeObject(claimsRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrMalformed, err)
	}
	if err := requireCanonical(headerRaw, header); err != nil {
		return nil, err
	}
	if err := requireCanonical(claimsRaw, claimsMap); err != nil {
		return nil, err
	}

	claims, err := claimsFromMap(claimsMap)
	if err != nil {
		return nil, err
	}

	return &Token{
		Alg:          alg,
		Claims:       claims,
		Signature:    sig,
		Raw:          raw,
		signingInput: parts[0] + "." + parts[1],
	}, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data")
	}
	if m == nil {
		return nil, errors.New("not an object")
	}
	return m, nil
}

func requireCanonical(raw []byte, decoded map[string]any) error {
	again, err := canonicalJSON(decoded)
	if err != nil {
		return err
	}
	if !bytes.Equal(raw, again) {
		return ErrNonCanonical
	}
	return nil
}
