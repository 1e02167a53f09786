package delegatesdk

import "time"

// ErrorResponse is the JSON body of every failed call.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`

	// Reason is the ledger's revert reason, when the ledger rejected a write.
	Reason string `json:"reason,omitempty"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
	Signer   string `json:"signer"`
}

// ============================================================================
// Registry
// ============================================================================

type Application struct {
	AppID                  uint64       `json:"app_id"`
	Name                   string       `json:"name"`
	Description            string       `json:"description"`
	Manager                string       `json:"manager"`
	Delegatees             []string     `json:"delegatees"`
	AuthorizedRedirectURIs []string     `json:"authorized_redirect_uris"`
	CurrentVersion         uint64       `json:"current_version"`
	Versions               []AppVersion `json:"versions"`
	IsEnabled              bool         `json:"is_enabled"`
	Metadata               Metadata     `json:"metadata"`
}

type Metadata struct {
	ContactEmail string `json:"contact_email"`
}

type AppVersion struct {
	Version uint64 `json:"version"`
	Enabled bool   `json:"enabled"`
	Tools   []Tool `json:"tools"`

	// DelegatedAgentPKPs are decimal token ids.
	DelegatedAgentPKPs []string `json:"delegated_agent_pkps"`
}

type Tool struct {
	IPFSCID  string   `json:"ipfs_cid"`
	Policies []Policy `json:"policies"`
}

type Policy struct {
	IPFSCID        string   `json:"ipfs_cid"`
	ParameterNames []string `json:"parameter_names"`
}

type ListAppsResponse struct {
	Manager string        `json:"manager"`
	Apps    []Application `json:"apps"`
}

type VersionResponse struct {
	AppID   uint64     `json:"app_id"`
	Version AppVersion `json:"version"`
}

type AgentsResponse struct {
	AppID   uint64   `json:"app_id"`
	Version uint64   `json:"version"`
	PKPs    []string `json:"pkps"`
}

type RegisterAppRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
	Delegatees   []string `json:"delegatees,omitempty"`

	// ContactEmail is kept off-ledger in the service's metadata store.
	ContactEmail string `json:"contact_email,omitempty"`
}

type RegisterAppResponse struct {
	AppID  uint64 `json:"app_id"`
	TxHash string `json:"tx_hash"`
}

type RegisterVersionRequest struct {
	// Version must be exactly one past the application's current version.
	Version uint64 `json:"version"`
	Tools   []Tool `json:"tools"`
}

type RegisterVersionResponse struct {
	AppID   uint64 `json:"app_id"`
	Version uint64 `json:"version"`
	TxHash  string `json:"tx_hash"`
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type AddDelegateeRequest struct {
	Delegatee string `json:"delegatee"`
}

// TxResponse acknowledges a write that reached finality.
type TxResponse struct {
	TxHash string `json:"tx_hash"`
	Block  uint64 `json:"block"`
}

// ============================================================================
// Sessions and credentials
// ============================================================================

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type IssueCredentialRequest struct {
	Payload          map[string]any `json:"payload,omitempty"`
	ExpiresInMinutes int            `json:"expires_in_minutes,omitempty"`
	Audience         []string       `json:"audience"`
}

type CredentialResponse struct {
	Credential string    `json:"credential"`
	Alg        string    `json:"alg"`
	Issuer     string    `json:"issuer,omitempty"`
	Audience   []string  `json:"audience"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type VerifyRequest struct {
	Credential string `json:"credential"`

	// PublicKey is PEM or hex. Empty means the service's own key.
	PublicKey string `json:"public_key,omitempty"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// SignerResponse describes the service's delegated key.
type SignerResponse struct {
	Alg       string `json:"alg"`
	PublicKey string `json:"public_key"`
	Identity  string `json:"identity"`
}

type ConsentResponse struct {
	SignInURL   string `json:"signin_url"`
	DelegateURL string `json:"delegate_url"`
}
