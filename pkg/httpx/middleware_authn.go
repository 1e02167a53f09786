package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

// Authenticator turns a raw bearer credential into a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, raw string) (Principal, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, raw string) (Principal, error) {
	return f(ctx, raw)
}

// AuthnMiddleware requires a valid bearer credential and stores the caller in
// the request context.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			p, err := a.Authenticate(ctx, raw)
			if err != nil {
				log.Warn("credential rejected", "err", err)
				writeBearerError(w, "credential verification failed")
				return
			}

			ctx = slogx.With(contextWithPrincipal(ctx, p), "caller", p.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
