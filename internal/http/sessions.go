package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/idx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

// SessionsHandler manages per-session credential slots. A session holds at
// most one credential; issuing again replaces it.
type SessionsHandler struct {
	Sessions      *credential.Sessions
	IssuerOptions credential.IssuerOptions
	Verifier      *credential.Verifier
	Signer        pkp.Signer
	Identity      string

	// Reserved is the audience that authorizes registry writes. Sessions may
	// not mint credentials for it.
	Reserved string
}

func (h *SessionsHandler) open(w http.ResponseWriter, r *http.Request) (*credential.Store, bool) {
	st, err := h.Sessions.Open(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return st, true
}

// HandleCreate handles POST /v1/sessions
//
//	@Summary		Create Session
//	@Description	Allocates a session id. Nothing is stored until a credential is issued.
//	@Tags			Sessions
//	@Produce		json
//	@Success		201	{object}	delegatesdk.SessionResponse	"session_id, created_at"
//	@Router			/v1/sessions [post].
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusCreated, delegatesdk.SessionResponse{
		SessionID: string(idx.New()),
		CreatedAt: time.Now().UTC(),
	})
}

// HandleEnd handles DELETE /v1/sessions/{sessionID}
//
//	@Summary		End Session
//	@Description	Removes the session's credential and cached identity.
//	@Tags			Sessions
//	@Param			sessionID	path	string	true	"Session id"
//	@Success		204
//	@Failure		400	{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/sessions/{sessionID} [delete].
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	st, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := st.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIssue handles POST /v1/sessions/{sessionID}/credential
//
//	@Summary		Issue Credential
//	@Description	Signs a credential with the service's delegated key and stores it in the session, replacing any previous one.
//	@Description	expires_in_minutes defaults to 10.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			sessionID	path		string								true	"Session id"
//	@Param			request		body		delegatesdk.IssueCredentialRequest	true	"Payload, audience and lifetime"
//	@Success		201			{object}	delegatesdk.CredentialResponse		"credential"
//	@Failure		400			{object}	delegatesdk.ErrorResponse			"error, error_description"
//	@Failure		403			{object}	delegatesdk.ErrorResponse			"error, error_description"
//	@Failure		502			{object}	delegatesdk.ErrorResponse			"error, error_description"
//	@Router			/v1/sessions/{sessionID}/credential [post].
func (h *SessionsHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req delegatesdk.IssueCredentialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}
	if h.Reserved != "" && slices.Contains(req.Audience, h.Reserved) {
		httpx.WriteError(w, http.StatusForbidden, delegatesdk.ErrorCodeForbidden,
			"audience "+h.Reserved+" can only be issued by the key holder")
		return
	}
	if req.ExpiresInMinutes == 0 {
		req.ExpiresInMinutes = credential.DefaultExpiresInMinutes
	}

	st, ok := h.open(w, r)
	if !ok {
		return
	}

	c, err := credential.NewIssuer(st, h.IssuerOptions).
		Issue(ctx, h.Signer, h.Identity, req.Payload, req.ExpiresInMinutes, req.Audience)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("credential issued", "session", st.SessionID(), "expires_at", c.Claims.ExpiresAt)
	httpx.WriteJSON(w, http.StatusCreated, toCredential(c))
}

// HandleGet handles GET /v1/sessions/{sessionID}/credential
//
//	@Summary		Get Session Credential
//	@Description	Returns the credential held by the session. Expired credentials are not returned.
//	@Tags			Sessions
//	@Produce		json
//	@Param			sessionID	path		string							true	"Session id"
//	@Success		200			{object}	delegatesdk.CredentialResponse	"credential"
//	@Failure		404			{object}	delegatesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/sessions/{sessionID}/credential [get].
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	st, ok := h.open(w, r)
	if !ok {
		return
	}

	c, found, err := st.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, &domain.NotFoundError{What: "credential for session " + st.SessionID()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCredential(c))
}

// HandleClear handles DELETE /v1/sessions/{sessionID}/credential
//
//	@Summary		Clear Session Credential
//	@Description	Empties the session's credential slot. Clearing an empty slot succeeds.
//	@Tags			Sessions
//	@Param			sessionID	path	string	true	"Session id"
//	@Success		204
//	@Router			/v1/sessions/{sessionID}/credential [delete].
func (h *SessionsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	st, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := st.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyStored handles POST /v1/sessions/{sessionID}/credential/verify
//
//	@Summary		Verify Session Credential
//	@Description	Verifies the session's credential against the service key.
//	@Tags			Sessions
//	@Produce		json
//	@Param			sessionID	path		string						true	"Session id"
//	@Success		200			{object}	delegatesdk.VerifyResponse	"valid"
//	@Failure		404			{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/sessions/{sessionID}/credential/verify [post].
func (h *SessionsHandler) HandleVerifyStored(w http.ResponseWriter, r *http.Request) {
	st, ok := h.open(w, r)
	if !ok {
		return
	}

	valid, err := h.Verifier.VerifyStored(r.Context(), st, h.Signer.PublicKey())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, delegatesdk.VerifyResponse{Valid: valid})
}
