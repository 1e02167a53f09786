package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/metrics"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/stretchr/testify/require"
)

var (
	_ registry.Metrics   = (*metrics.Metrics)(nil)
	_ credential.Metrics = (*metrics.Metrics)(nil)
)

func TestCountersAreExposed(t *testing.T) {
	m := metrics.New()
	m.ObserveWrite("registerApp", "ok", 20*time.Millisecond)
	m.ObserveWrite("registerApp", "reverted", time.Millisecond)
	m.ObserveRead("getAppById", "ok", time.Millisecond)
	m.ObserveIssue("ok", time.Millisecond)
	m.ObserveVerify(true)
	m.ObserveVerify(false)
	m.ObservePurged(3)
	m.ObservePurged(0)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "delegate_ledger_writes_total" {
			require.Len(t, f.GetMetric(), 2)
		}
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `delegate_ledger_writes_total{method="registerApp",outcome="reverted"} 1`)
	require.Contains(t, body, `delegate_credential_verifications_total{valid="false"} 1`)
	require.Contains(t, body, "delegate_sessions_purged_total 3")
	require.True(t, strings.Contains(body, "go_goroutines"))
}
