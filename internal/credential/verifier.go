package credential

import (
	"context"
	"crypto"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
)

type VerifierOptions struct {
	Now     func() time.Time
	Metrics Metrics
}

// Verifier checks credential signatures and lifetimes. It holds no state.
type Verifier struct {
	now     func() time.Time
	metrics Metrics
}

func NewVerifier(opts VerifierOptions) *Verifier {
	v := &Verifier{now: opts.Now, metrics: opts.Metrics}
	if v.now == nil {
		v.now = time.Now
	}
	if v.metrics == nil {
		v.metrics = noMetrics{}
	}
	return v
}

// Verify reports whether credential carries a valid signature by pub and
// has not expired. Malformed credentials are simply invalid; only a
// malformed key is an error.
func (v *Verifier) Verify(credential string, pub crypto.PublicKey) (bool, error) {
	_, ok, err := v.Check(credential, pub)
	return ok, err
}

// VerifyWithKeyText is Verify for a key given as PEM or hex text.
func (v *Verifier) VerifyWithKeyText(credential, publicKey string) (bool, error) {
	pub, err := jwtx.ParsePublicKey(publicKey)
	if err != nil {
		return false, domain.Invalid("public_key", "%v", err)
	}
	return v.Verify(credential, pub)
}

// Check is Verify that also returns the decoded credential when it is valid.
func (v *Verifier) Check(credential string, pub crypto.PublicKey) (Credential, bool, error) {
	if _, err := jwtx.AlgForKey(pub); err != nil {
		return Credential{}, false, domain.Invalid("public_key", "%v", err)
	}

	tok, err := jwtx.Parse(credential)
	if err != nil {
		v.metrics.ObserveVerify(false)
		return Credential{}, false, nil
	}
	if err := jwtx.VerifySignature(tok, pub); err != nil {
		v.metrics.ObserveVerify(false)
		return Credential{}, false, nil
	}
	if err := tok.Claims.ValidateExpiry(v.now()); err != nil {
		v.metrics.ObserveVerify(false)
		return Credential{}, false, nil
	}

	v.metrics.ObserveVerify(true)
	return fromToken(tok), true, nil
}

// VerifyStored verifies the credential held by st. An empty slot is a
// NotFoundError.
func (v *Verifier) VerifyStored(ctx context.Context, st *Store, pub crypto.PublicKey) (bool, error) {
	c, ok, err := st.Get(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &domain.NotFoundError{What: "credential for session " + st.SessionID()}
	}
	return v.Verify(c.Token, pub)
}
