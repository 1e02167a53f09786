package http

import (
	"net/http"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
)

// AppsHandler serves registry reads. None of them need a credential.
type AppsHandler struct {
	Apps     *registry.Builder
	Registry *registry.Client
}

// HandleListByManager handles GET /v1/managers/{manager}/apps
//
//	@Summary		List Applications By Manager
//	@Description	Returns every application managed by the address, each with all of its versions.
//	@Tags			Applications
//	@Produce		json
//	@Param			manager	path		string							true	"Manager address (0x-prefixed)"
//	@Success		200		{object}	delegatesdk.ListAppsResponse	"manager, apps"
//	@Failure		400		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Failure		502		{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/managers/{manager}/apps [get].
func (h *AppsHandler) HandleListByManager(w http.ResponseWriter, r *http.Request) {
	manager, err := domain.ParseAddress(r.PathValue("manager"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	apps, err := h.Apps.BuildApplicationsForManager(r.Context(), string(manager))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := delegatesdk.ListAppsResponse{Manager: string(manager), Apps: make([]delegatesdk.Application, len(apps))}
	for i, a := range apps {
		resp.Apps[i] = toApplication(a)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/apps/{appID}
//
//	@Summary		Get Application
//	@Description	Returns one application with all of its versions.
//	@Tags			Applications
//	@Produce		json
//	@Param			appID	path		int							true	"Application id"
//	@Success		200		{object}	delegatesdk.Application		"application"
//	@Failure		400		{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/apps/{appID} [get].
func (h *AppsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	appID, err := parseUintPath(r.PathValue("appID"), "app_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	app, err := h.Apps.BuildApplication(r.Context(), appID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toApplication(app))
}

// HandleGetVersion handles GET /v1/apps/{appID}/versions/{version}
//
//	@Summary		Get Application Version
//	@Description	Returns one version with its tools, policies and permitted agent keys.
//	@Tags			Applications
//	@Produce		json
//	@Param			appID	path		int							true	"Application id"
//	@Param			version	path		int							true	"Version number"
//	@Success		200		{object}	delegatesdk.VersionResponse	"app_id, version"
//	@Failure		400		{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	delegatesdk.ErrorResponse	"error, error_description, reason"
//	@Router			/v1/apps/{appID}/versions/{version} [get].
func (h *AppsHandler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	appID, version, ok := appAndVersion(w, r)
	if !ok {
		return
	}

	_, v, err := h.Registry.GetAppVersion(r.Context(), appID, version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, delegatesdk.VersionResponse{AppID: appID, Version: toVersion(v)})
}

// HandleListAgents handles GET /v1/apps/{appID}/versions/{version}/agents
//
//	@Summary		List Delegated Agents
//	@Description	Returns the agent key token ids that permitted the version, as decimal strings.
//	@Tags			Applications
//	@Produce		json
//	@Param			appID	path		int							true	"Application id"
//	@Param			version	path		int							true	"Version number"
//	@Success		200		{object}	delegatesdk.AgentsResponse	"app_id, version, pkps"
//	@Failure		400		{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	delegatesdk.ErrorResponse	"error, error_description, reason"
//	@Router			/v1/apps/{appID}/versions/{version}/agents [get].
func (h *AppsHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	appID, version, ok := appAndVersion(w, r)
	if !ok {
		return
	}

	pkps, err := h.Registry.FetchDelegatedAgentPKPs(r.Context(), appID, version)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := delegatesdk.AgentsResponse{AppID: appID, Version: version, PKPs: make([]string, len(pkps))}
	for i, p := range pkps {
		resp.PKPs[i] = p.String()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func appAndVersion(w http.ResponseWriter, r *http.Request) (uint64, uint64, bool) {
	appID, err := parseUintPath(r.PathValue("appID"), "app_id")
	if err != nil {
		writeError(w, r, err)
		return 0, 0, false
	}
	version, err := parseUintPath(r.PathValue("version"), "version")
	if err != nil {
		writeError(w, r, err)
		return 0, 0, false
	}
	return appID, version, true
}
