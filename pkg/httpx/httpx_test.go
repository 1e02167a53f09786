package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestCompositeKeyExtractorSkipsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	key := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.PrincipalKeyExtractor)(req)
	require.Equal(t, "192.168.1.1", key)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
	h := httpx.RateLimitByIP(cfg)(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// A different client has its own bucket.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TEST_REQUESTS", "7")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TEST_BURST", "-1")

	def := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 2}
	got := httpx.ParseRateLimitFromEnv("TEST", def)
	require.Equal(t, 7, got.RequestsPerWindow)
	require.Equal(t, 30*time.Second, got.Window)
	require.Equal(t, 2, got.Burst)
}

func TestAuthnMiddleware(t *testing.T) {
	auth := httpx.AuthenticatorFunc(func(_ context.Context, raw string) (httpx.Principal, error) {
		if raw != "good" {
			return httpx.Principal{}, errors.New("bad credential")
		}
		return httpx.Principal{Subject: "0xabc"}, nil
	})

	var seen string
	h := httpx.AuthnMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		require.True(t, ok)
		seen = p.Subject
	}))

	cases := map[string]int{
		"":            http.StatusUnauthorized,
		"Basic good":  http.StatusUnauthorized,
		"Bearer bad":  http.StatusUnauthorized,
		"Bearer good": http.StatusOK,
		"bearer good": http.StatusOK,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, header)
		if want == http.StatusUnauthorized {
			require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
		}
	}
	require.Equal(t, "0xabc", seen)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, httpx.DecodeJSON(req, &v))
	require.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	require.Error(t, httpx.DecodeJSON(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}{}`))
	require.Error(t, httpx.DecodeJSON(req, &v))
}
