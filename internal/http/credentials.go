package http

import (
	"net/http"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
)

type CredentialsHandler struct {
	Verifier *credential.Verifier
	Signer   pkp.Signer
	Identity string
}

// HandleVerify handles POST /v1/credentials/verify
//
//	@Summary		Verify Credential
//	@Description	Checks a credential's signature and expiry. Without public_key the service's own key is used.
//	@Description	A malformed credential is reported as valid=false; only a malformed key is an error.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Param			request	body		delegatesdk.VerifyRequest	true	"Credential and optional public key"
//	@Success		200		{object}	delegatesdk.VerifyResponse	"valid"
//	@Failure		400		{object}	delegatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/credentials/verify [post].
func (h *CredentialsHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req delegatesdk.VerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	var (
		valid bool
		err   error
	)
	if req.PublicKey == "" {
		valid, err = h.Verifier.Verify(req.Credential, h.Signer.PublicKey())
	} else {
		valid, err = h.Verifier.VerifyWithKeyText(req.Credential, req.PublicKey)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, delegatesdk.VerifyResponse{Valid: valid})
}

// HandleSigner handles GET /v1/signer
//
//	@Summary		Service Signer
//	@Description	Returns the algorithm, PEM public key and identity of the service's delegated key.
//	@Tags			Credentials
//	@Produce		json
//	@Success		200	{object}	delegatesdk.SignerResponse	"alg, public_key, identity"
//	@Router			/v1/signer [get].
func (h *CredentialsHandler) HandleSigner(w http.ResponseWriter, r *http.Request) {
	pemKey, err := cryptox.EncodePublicKeyPEM(h.Signer.PublicKey())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, delegatesdk.SignerResponse{
		Alg:       h.Signer.Alg(),
		PublicKey: pemKey,
		Identity:  h.Identity,
	})
}
