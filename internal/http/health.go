package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/delegate/internal/store"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
)

// Pinger is implemented by session backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	delegatesdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := delegatesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe returning service health and the state of the ledger database, session backend and signer
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	delegatesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	delegatesdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	sessions Pinger,
	signer pkp.Signer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &delegatesdk.HealthChecks{
			Database: "ok",
			Sessions: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK
		fail := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(r.Context()); err != nil {
			fail(&checks.Database, err.Error())
		}

		if sessions != nil {
			if err := sessions.Ping(r.Context()); err != nil {
				fail(&checks.Sessions, err.Error())
			}
		}

		if signer == nil {
			fail(&checks.Signer, "no signer configured")
		} else if _, err := jwtx.AlgForKey(signer.PublicKey()); err != nil {
			fail(&checks.Signer, err.Error())
		}

		response := delegatesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
