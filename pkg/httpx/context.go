package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	// Subject is the identity asserted by the credential's issuer claim.
	Subject string
	Claims  jwtx.Claims
}

func contextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the caller set by AuthnMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

func logFromRequest(r *http.Request) *slog.Logger {
	return slogx.FromContext(r.Context())
}
