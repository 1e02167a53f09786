package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
)

// DefaultExpiresInMinutes is the lifetime callers use when they have no
// preference.
const DefaultExpiresInMinutes = 10

// MaxExpiresInMinutes is the longest lifetime a time.Duration can carry.
const MaxExpiresInMinutes = math.MaxInt64 / int64(time.Minute)

// Metrics receives credential outcomes.
type Metrics interface {
	ObserveIssue(outcome string, d time.Duration)
	ObserveVerify(valid bool)
}

type noMetrics struct{}

func (noMetrics) ObserveIssue(string, time.Duration) {}
func (noMetrics) ObserveVerify(bool)                 {}

type IssuerOptions struct {
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics Metrics
}

// Issuer signs credentials with a delegated key and keeps the newest one in
// its store.
type Issuer struct {
	store   *Store
	now     func() time.Time
	log     *slog.Logger
	metrics Metrics
}

func NewIssuer(st *Store, opts IssuerOptions) *Issuer {
	i := &Issuer{store: st, now: opts.Now, log: opts.Logger, metrics: opts.Metrics}
	if i.now == nil {
		i.now = time.Now
	}
	if i.log == nil {
		i.log = slog.Default()
	}
	if i.metrics == nil {
		i.metrics = noMetrics{}
	}
	return i
}

// Issue clears the session's credential, signs a new one and stores it. The
// slot stays locked for the whole sequence. A failed signature leaves the
// slot empty. Signing is attempted once; retrying is up to the caller.
func (i *Issuer) Issue(
	ctx context.Context,
	signer pkp.Signer,
	keyIdentity string,
	payload map[string]any,
	expiresInMinutes int,
	audience []string,
) (Credential, error) {
	start := time.Now()
	c, err := i.issue(ctx, signer, keyIdentity, payload, expiresInMinutes, audience)

	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, domain.ErrSigning):
		outcome = "signing_error"
	case err != nil:
		outcome = "error"
	}
	i.metrics.ObserveIssue(outcome, time.Since(start))
	return c, err
}

func (i *Issuer) issue(
	ctx context.Context,
	signer pkp.Signer,
	keyIdentity string,
	payload map[string]any,
	expiresInMinutes int,
	audience []string,
) (Credential, error) {
	if signer == nil {
		return Credential{}, domain.Invalid("signer", "no signing capability")
	}
	if expiresInMinutes <= 0 {
		return Credential{}, domain.Invalid("expires_in_minutes", "must be positive, got %d", expiresInMinutes)
	}
	if int64(expiresInMinutes) > MaxExpiresInMinutes {
		return Credential{}, domain.Invalid("expires_in_minutes", "must be at most %d, got %d", MaxExpiresInMinutes, expiresInMinutes)
	}
	if len(audience) == 0 {
		return Credential{}, domain.Invalid("audience", "at least one audience is required")
	}
	for _, a := range audience {
		if strings.TrimSpace(a) == "" {
			return Credential{}, domain.Invalid("audience", "empty audience entry")
		}
	}
	payload, err := normalizePayload(payload)
	if err != nil {
		return Credential{}, err
	}

	alg := signer.Alg()
	if _, err := jwtx.Method(alg); err != nil {
		return Credential{}, &domain.SigningError{Err: err}
	}

	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	if err := i.store.clear(ctx); err != nil {
		return Credential{}, fmt.Errorf("credential: clear session %s: %w", i.store.sessionID, err)
	}

	now := i.now()
	ttl := time.Duration(expiresInMinutes) * time.Minute
	claims := jwtx.NewClaims(keyIdentity, audience, payload, ttl, now)
	input, err := jwtx.SigningInput(alg, claims)
	if err != nil {
		return Credential{}, domain.Invalid("payload", "%v", err)
	}

	sig, err := signer.Sign(ctx, []byte(input))
	if err != nil {
		i.log.Warn("credential signing failed", "session", i.store.sessionID, "alg", alg, "err", err)
		return Credential{}, &domain.SigningError{Err: err}
	}
	if len(sig) == 0 {
		return Credential{}, &domain.SigningError{Err: errors.New("empty signature")}
	}

	raw := jwtx.Assemble(input, sig)
	tok, err := jwtx.Parse(raw)
	if err != nil {
		return Credential{}, fmt.Errorf("credential: assembled token does not parse: %w", err)
	}
	c := fromToken(tok)

	if err := i.store.put(ctx, c, now); err != nil {
		return Credential{}, fmt.Errorf("credential: store session %s: %w", i.store.sessionID, err)
	}
	if err := i.store.putIdentity(ctx, keyIdentity, ttl); err != nil {
		return Credential{}, fmt.Errorf("credential: store identity for session %s: %w", i.store.sessionID, err)
	}

	i.log.Info("credential issued",
		"session", i.store.sessionID,
		"fingerprint", cryptox.Fingerprint(raw),
		"aud", claims.Audience,
		"exp", claims.ExpiresAt,
	)
	return c, nil
}

// normalizePayload round-trips payload through JSON so it only holds maps,
// slices, strings, json.Number, bools and nil. Structs, typed maps and
// invalid UTF-8 all encode the same way twice after this.
func normalizePayload(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.Invalid("payload", "not serializable: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, domain.Invalid("payload", "not serializable: %v", err)
	}
	return out, nil
}
