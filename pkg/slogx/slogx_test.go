package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	log := slogx.New(slogx.Config{Service: "delegate", Version: "test", Env: "prod", Level: "warn", Output: &buf})
	log.Info("dropped")
	log.Warn("kept", "app_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["msg"])
	require.Equal(t, "delegate", line["service"])
	require.EqualValues(t, 7, line["app_id"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.Same(t, slog.Default(), slogx.FromContext(context.Background()))

	l := slogx.Discard()
	require.Same(t, l, slogx.FromContext(slogx.WithContext(context.Background(), l)))
}

func TestHTTPMiddlewarePropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/apps/1", nil)
	req.Header.Set(slogx.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))
	require.Contains(t, buf.String(), `"req_id":"req-123"`)
	require.Contains(t, buf.String(), `"status":418`)
}
