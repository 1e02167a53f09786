package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

// writeError maps the domain error taxonomy onto HTTP statuses.
//
//	ValidationError            400 validation_error
//	AuthorizationError         403 forbidden
//	NotFoundError              404 not_found
//	revert "...NotRegistered"  404 not_found
//	other reverts              409 ledger_rejected
//	finality wait abandoned    504 ledger_timeout
//	ledger transport failure   502 ledger_error
//	SigningError               502 signing_error
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var (
		verr *domain.ValidationError
		lerr *domain.LedgerError
	)
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, delegatesdk.ErrorCodeValidation, verr.Error())

	case errors.Is(err, domain.ErrAuthorization):
		resp := httpx.ErrorResponse{
			Error:            delegatesdk.ErrorCodeForbidden,
			ErrorDescription: "caller is not the application's manager",
		}
		var aerr *domain.AuthorizationError
		if errors.As(err, &aerr) {
			resp.Reason = aerr.Reason
		}
		httpx.WriteJSON(w, http.StatusForbidden, resp)

	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, delegatesdk.ErrorCodeNotFound, err.Error())

	case errors.As(err, &lerr) && lerr.Reason != "":
		code, status := delegatesdk.ErrorCodeLedgerRejected, http.StatusConflict
		if strings.HasSuffix(lerr.Reason, "NotRegistered") && !strings.HasPrefix(lerr.Reason, "Delegatee") {
			code, status = delegatesdk.ErrorCodeNotFound, http.StatusNotFound
		}
		httpx.WriteJSON(w, status, httpx.ErrorResponse{
			Error:            code,
			ErrorDescription: "ledger rejected " + lerr.Op,
			Reason:           lerr.Reason,
		})

	case errors.Is(err, ledger.ErrWaitAborted):
		log.Warn("gave up waiting for finality", "error", err)
		httpx.WriteError(w, http.StatusGatewayTimeout, delegatesdk.ErrorCodeLedgerTimeout,
			"transaction submitted but not final yet; it may still be committed")

	case errors.Is(err, domain.ErrLedger):
		log.Error("ledger call failed", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, delegatesdk.ErrorCodeLedgerError, "ledger unavailable")

	case errors.Is(err, domain.ErrSigning):
		log.Error("signing failed", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, delegatesdk.ErrorCodeSigningError, "delegated signing failed")

	default:
		log.Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, delegatesdk.ErrorCodeServerError, "internal error")
	}
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteError(w, http.StatusBadRequest, delegatesdk.ErrorCodeInvalidRequest, desc)
}
