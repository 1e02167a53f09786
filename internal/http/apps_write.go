package http

import (
	"net/http"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/internal/store"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

// AppWritesHandler serves manager operations. Every write is sent from the
// authenticated caller's address and answered once the ledger finalized it.
type AppWritesHandler struct {
	Registry *registry.Client
	Metadata store.Metadata
}

func (h *AppWritesHandler) asCaller(r *http.Request) *registry.Client {
	return h.Registry.WithSender(principal(r.Context()))
}

func (h *AppWritesHandler) delegation(r *http.Request) *registry.DelegationManager {
	return registry.NewDelegationManager(h.asCaller(r))
}

// HandleRegister handles POST /v1/apps
//
//	@Summary		Register Application
//	@Description	Registers an application managed by the caller. The ledger creates version 1 with it.
//	@Tags			Applications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		delegatesdk.RegisterAppRequest	true	"Application details"
//	@Success		201		{object}	delegatesdk.RegisterAppResponse	"app_id, tx_hash"
//	@Failure		400		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	delegatesdk.ErrorResponse		"error, error_description, reason"
//	@Failure		504		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/apps [post].
func (h *AppWritesHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req delegatesdk.RegisterAppRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	appID, receipt, err := h.asCaller(r).RegisterApp(ctx, registry.RegisterAppParams{
		Name:         req.Name,
		Description:  req.Description,
		RedirectURIs: req.RedirectURIs,
		Delegatees:   req.Delegatees,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.ContactEmail != "" && h.Metadata != nil {
		// The application exists on the ledger at this point, so a metadata
		// failure is logged and not reported to the caller.
		if err := h.Metadata.PutMetadata(ctx, appID, domain.Metadata{ContactEmail: req.ContactEmail}); err != nil {
			log.Error("failed to store application metadata", "app_id", appID, "error", err)
		}
	}

	log.Info("application registered", "app_id", appID, "tx", receipt.TxHash)
	httpx.WriteJSON(w, http.StatusCreated, delegatesdk.RegisterAppResponse{AppID: appID, TxHash: receipt.TxHash})
}

// HandleRegisterVersion handles POST /v1/apps/{appID}/versions
//
//	@Summary		Register Next Version
//	@Description	Appends a version with the given tools. The requested version must be exactly one past the current one.
//	@Tags			Applications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			appID	path		int									true	"Application id"
//	@Param			request	body		delegatesdk.RegisterVersionRequest	true	"Version and tools"
//	@Success		201		{object}	delegatesdk.RegisterVersionResponse	"app_id, version, tx_hash"
//	@Failure		400		{object}	delegatesdk.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	delegatesdk.ErrorResponse			"error, error_description, reason"
//	@Failure		404		{object}	delegatesdk.ErrorResponse			"error, error_description, reason"
//	@Router			/v1/apps/{appID}/versions [post].
func (h *AppWritesHandler) HandleRegisterVersion(w http.ResponseWriter, r *http.Request) {
	appID, err := parseUintPath(r.PathValue("appID"), "app_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req delegatesdk.RegisterVersionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	cids, policies, params := toolArrays(req.Tools)
	version, receipt, err := h.delegation(r).RegisterNextVersion(r.Context(), appID, req.Version, cids, policies, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, delegatesdk.RegisterVersionResponse{
		AppID:   appID,
		Version: version,
		TxHash:  receipt.TxHash,
	})
}

// HandleSetEnabled handles PUT /v1/apps/{appID}/versions/{version}/enabled
//
//	@Summary		Enable Or Disable Version
//	@Description	Sets a version's enablement. Repeating the same value is accepted.
//	@Tags			Applications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			appID	path		int								true	"Application id"
//	@Param			version	path		int								true	"Version number"
//	@Param			request	body		delegatesdk.SetEnabledRequest	true	"Desired state"
//	@Success		200		{object}	delegatesdk.TxResponse			"tx_hash, block"
//	@Failure		403		{object}	delegatesdk.ErrorResponse		"error, error_description, reason"
//	@Failure		404		{object}	delegatesdk.ErrorResponse		"error, error_description, reason"
//	@Router			/v1/apps/{appID}/versions/{version}/enabled [put].
func (h *AppWritesHandler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	appID, version, ok := appAndVersion(w, r)
	if !ok {
		return
	}

	var req delegatesdk.SetEnabledRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	receipt, err := h.delegation(r).ToggleVersion(r.Context(), appID, version, req.Enabled)
	writeReceipt(w, r, receipt, err)
}

// HandleAddDelegatee handles POST /v1/apps/{appID}/delegatees
//
//	@Summary		Add Delegatee
//	@Description	Adds a delegatee address to the application.
//	@Tags			Applications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			appID	path		int								true	"Application id"
//	@Param			request	body		delegatesdk.AddDelegateeRequest	true	"Delegatee address"
//	@Success		200		{object}	delegatesdk.TxResponse			"tx_hash, block"
//	@Failure		400		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	delegatesdk.ErrorResponse		"error, error_description, reason"
//	@Failure		409		{object}	delegatesdk.ErrorResponse		"error, error_description, reason"
//	@Router			/v1/apps/{appID}/delegatees [post].
func (h *AppWritesHandler) HandleAddDelegatee(w http.ResponseWriter, r *http.Request) {
	appID, err := parseUintPath(r.PathValue("appID"), "app_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req delegatesdk.AddDelegateeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	receipt, err := h.delegation(r).AddDelegatee(r.Context(), appID, req.Delegatee)
	writeReceipt(w, r, receipt, err)
}

// HandleRemoveDelegatee handles DELETE /v1/apps/{appID}/delegatees/{delegatee}
//
//	@Summary		Remove Delegatee
//	@Description	Removes a delegatee address from the application.
//	@Tags			Applications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			appID		path		int							true	"Application id"
//	@Param			delegatee	path		string						true	"Delegatee address"
//	@Success		200			{object}	delegatesdk.TxResponse		"tx_hash, block"
//	@Failure		403			{object}	delegatesdk.ErrorResponse	"error, error_description, reason"
//	@Failure		409			{object}	delegatesdk.ErrorResponse	"error, error_description, reason"
//	@Router			/v1/apps/{appID}/delegatees/{delegatee} [delete].
func (h *AppWritesHandler) HandleRemoveDelegatee(w http.ResponseWriter, r *http.Request) {
	appID, err := parseUintPath(r.PathValue("appID"), "app_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := h.delegation(r).RemoveDelegatee(r.Context(), appID, r.PathValue("delegatee"))
	writeReceipt(w, r, receipt, err)
}

func writeReceipt(w http.ResponseWriter, r *http.Request, receipt *ledger.Receipt, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, delegatesdk.TxResponse{TxHash: receipt.TxHash, Block: receipt.Block})
}
