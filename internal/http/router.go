package http

import (
	"crypto"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/internal/store"
	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/aussiebroadwan/delegate/pkg/httpx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/aussiebroadwan/delegate/pkg/slogx"

	_ "github.com/aussiebroadwan/delegate/api/delegate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       pkp.Signer
	identity     string
	audience     string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	// Registry writes as the service identity; handlers rebind it to the
	// authenticated caller with WithSender.
	Registry *registry.Client
	Apps     *registry.Builder

	Sessions      *credential.Sessions
	SessionHealth Pinger
	IssuerOptions credential.IssuerOptions
	Verifier      *credential.Verifier
	Consent       *consent.Pages

	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func NewRouter(
	signer pkp.Signer,
	identity, audience, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		identity:     identity,
		audience:     audience,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerApps()
	r.registerSessions()
	r.registerCredentials()
	r.registerConsent()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Delegate Registry Service API
//	@version		0.1.0
//	@description	Application registry and delegated credential service.
//	@description
//	@description				Registry writes are submitted to the ledger and only answered once final.
//	@description				Credentials are compact JWS tokens signed by the service's delegated key (EdDSA or ES256).
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/delegate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Credential signed by the service key. Format: "Bearer {credential}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) publicKey() crypto.PublicKey { return r.signer.PublicKey() }

func (r *Router) registerApps() {
	reads := &AppsHandler{Apps: r.Apps, Registry: r.Registry}
	writes := &AppWritesHandler{Registry: r.Registry, Metadata: r.store.Metadata()}
	authn := httpx.AuthnMiddleware(&CredentialAuthenticator{
		Verifier: r.Verifier,
		Key:      r.publicKey(),
		Audience: r.audience,
	})

	read := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, httpx.RateLimitByIP(httpx.ReadLimit))
	}
	// Writes wait for ledger finality, so they are limited per caller.
	write := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, authn, httpx.RateLimitByPrincipal(httpx.WriteLimit))
	}

	r.Mux.Handle("GET /v1/managers/{manager}/apps", read(reads.HandleListByManager))
	r.Mux.Handle("GET /v1/apps/{appID}", read(reads.HandleGet))
	r.Mux.Handle("GET /v1/apps/{appID}/versions/{version}", read(reads.HandleGetVersion))
	r.Mux.Handle("GET /v1/apps/{appID}/versions/{version}/agents", read(reads.HandleListAgents))

	r.Mux.Handle("POST /v1/apps", write(writes.HandleRegister))
	r.Mux.Handle("POST /v1/apps/{appID}/versions", write(writes.HandleRegisterVersion))
	r.Mux.Handle("PUT /v1/apps/{appID}/versions/{version}/enabled", write(writes.HandleSetEnabled))
	r.Mux.Handle("POST /v1/apps/{appID}/delegatees", write(writes.HandleAddDelegatee))
	r.Mux.Handle("DELETE /v1/apps/{appID}/delegatees/{delegatee}", write(writes.HandleRemoveDelegatee))
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{
		Sessions:      r.Sessions,
		IssuerOptions: r.IssuerOptions,
		Verifier:      r.Verifier,
		Signer:        r.signer,
		Identity:      r.identity,
		Reserved:      r.audience,
	}

	limited := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, httpx.RateLimitByIP(httpx.CredentialLimit))
	}

	r.Mux.Handle("POST /v1/sessions", limited(h.HandleCreate))
	r.Mux.Handle("DELETE /v1/sessions/{sessionID}", limited(h.HandleEnd))
	r.Mux.Handle("POST /v1/sessions/{sessionID}/credential", limited(h.HandleIssue))
	r.Mux.Handle("GET /v1/sessions/{sessionID}/credential", limited(h.HandleGet))
	r.Mux.Handle("DELETE /v1/sessions/{sessionID}/credential", limited(h.HandleClear))
	r.Mux.Handle("POST /v1/sessions/{sessionID}/credential/verify", limited(h.HandleVerifyStored))
}

func (r *Router) registerCredentials() {
	h := &CredentialsHandler{Verifier: r.Verifier, Signer: r.signer, Identity: r.identity}

	r.Mux.Handle("POST /v1/credentials/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.CredentialLimit),
		),
	)
	r.Mux.Handle("GET /v1/signer",
		httpx.Chain(http.HandlerFunc(h.HandleSigner),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)
}

func (r *Router) registerConsent() {
	r.Mux.Handle("GET /v1/consent",
		httpx.Chain(ConsentHandler(r.Consent),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.SessionHealth, r.signer),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
