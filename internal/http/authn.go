package http

import (
	"context"
	"crypto"
	"errors"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
)

var errCredentialRejected = errors.New("credential rejected")

// CredentialAuthenticator accepts bearer credentials signed by Key for
// Audience. The principal is the credential issuer's address, which is the
// account registry writes are sent from.
type CredentialAuthenticator struct {
	Verifier *credential.Verifier
	Key      crypto.PublicKey
	Audience string
}

func (a *CredentialAuthenticator) Authenticate(_ context.Context, raw string) (httpx.Principal, error) {
	c, ok, err := a.Verifier.Check(raw, a.Key)
	if err != nil {
		return httpx.Principal{}, err
	}
	if !ok {
		return httpx.Principal{}, errCredentialRejected
	}
	if err := c.Claims.ValidateAudience([]string{a.Audience}); err != nil {
		return httpx.Principal{}, err
	}

	addr, err := domain.ParseAddress(c.Claims.Issuer)
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{Subject: string(addr), Claims: c.Claims}, nil
}

func principal(ctx context.Context) domain.Address {
	p, _ := httpx.PrincipalFromContext(ctx)
	return domain.Address(p.Subject)
}
