package jwtx

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Reserved claim names. Payload entries using these names never override
// the values set by the issuer.
const (
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
)

// ReservedClaims lists every claim name owned by the codec.
var ReservedClaims = []string{ClaimIssuer, ClaimAudience, ClaimIssuedAt, ClaimExpiresAt}

// IsReserved reports whether name is a reserved claim.
func IsReserved(name string) bool { return slices.Contains(ReservedClaims, name) }

// Claims are the credential claims: the registered time/audience fields plus
// an application-defined payload.
type Claims struct {
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Payload holds caller claims. Values must be JSON-serializable.
	Payload map[string]any
}

// NewClaims builds claims issued at now and expiring ttl later. Times are
// truncated to whole seconds since that is what the wire carries.
func NewClaims(issuer string, audience []string, payload map[string]any, ttl time.Duration, now time.Time) Claims {
	iat := now.UTC().Truncate(time.Second)
	return Claims{
		Issuer:    issuer,
		Audience:  slices.Clone(audience),
		IssuedAt:  iat,
		ExpiresAt: iat.Add(ttl),
		Payload:   payload,
	}
}

// Map flattens the claims into the JSON object that goes on the wire. Reserved
// names always carry the registered values.
func (c Claims) Map() map[string]any {
	m := make(map[string]any, len(c.Payload)+len(ReservedClaims))
	for k, v := range c.Payload {
		if IsReserved(k) {
			continue
		}
		m[k] = v
	}

	if c.Issuer != "" {
		m[ClaimIssuer] = c.Issuer
	}
	if len(c.Audience) == 1 {
		m[ClaimAudience] = c.Audience[0]
	} else {
		m[ClaimAudience] = slices.Clone(c.Audience)
	}
	m[ClaimIssuedAt] = c.IssuedAt.Unix()
	m[ClaimExpiresAt] = c.ExpiresAt.Unix()
	return m
}

// claimsFromMap rebuilds Claims from a decoded claims object. Numbers must
// have been decoded as json.Number.
func claimsFromMap(m map[string]any) (Claims, error) {
	var c Claims

	if v, ok := m[ClaimIssuer]; ok {
		s, ok := v.(string)
		if !ok {
			return Claims{}, fmt.Errorf("%w: iss is not a string", ErrInvalidClaim)
		}
		c.Issuer = s
	}

	aud, err := decodeAudience(m[ClaimAudience])
	if err != nil {
		return Claims{}, err
	}
	c.Audience = aud

	iat, err := decodeNumericDate(m, ClaimIssuedAt)
	if err != nil {
		return Claims{}, err
	}
	exp, err := decodeNumericDate(m, ClaimExpiresAt)
	if err != nil {
		return Claims{}, err
	}
	if !exp.After(iat) {
		return Claims{}, fmt.Errorf("%w: exp must be after iat", ErrInvalidClaim)
	}
	c.IssuedAt, c.ExpiresAt = iat, exp

	c.Payload = make(map[string]any, len(m))
	for k, v := range m {
		if !IsReserved(k) {
			c.Payload[k] = v
		}
	}
	return c, nil
}

func decodeAudience(v any) ([]string, error) {
	switch a := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: aud", ErrMissingClaim)
	case string:
		if a == "" {
			return nil, fmt.Errorf("%w: aud is empty", ErrInvalidClaim)
		}
		return []string{a}, nil
	case []any:
		if len(a) == 0 {
			return nil, fmt.Errorf("%w: aud is empty", ErrInvalidClaim)
		}
		out := make([]string, len(a))
		for i, e := range a {
			s, ok := e.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("%w: aud[%d] is not a string", ErrInvalidClaim, i)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: aud has type %T", ErrInvalidClaim, v)
	}
}

func decodeNumericDate(m map[string]any, name string) (time.Time, error) {
	v, ok := m[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingClaim, name)
	}
	n, ok := v.(json.Number)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s is not a number", ErrInvalidClaim, name)
	}
	secs, err := n.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s is not an integer", ErrInvalidClaim, name)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures now is not past exp. A credential is still valid at
// the exact second it expires.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if now.After(c.ExpiresAt) {
		return ErrExpired
	}
	return nil
}
