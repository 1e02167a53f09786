package http

import (
	"net/http"

	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
)

// ConsentHandler godoc
//
//	@Summary		Consent Page URLs
//	@Description	Returns the sign-in and delegation-control page URLs of the consent frontend.
//	@Description	The request's query string is forwarded to both pages unchanged.
//	@Tags			Consent
//	@Produce		json
//	@Success		200	{object}	delegatesdk.ConsentResponse	"signin_url, delegate_url"
//	@Router			/v1/consent [get].
func ConsentHandler(pages *consent.Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		httpx.WriteJSON(w, http.StatusOK, delegatesdk.ConsentResponse{
			SignInURL:   pages.SignInURL(q),
			DelegateURL: pages.DelegateURL(q),
		})
	}
}
