package domain

import "math/big"

// Application is the normalized view of a registered application.
type Application struct {
	AppID                  uint64    `json:"app_id"`
	Name                   string    `json:"name"`
	Description            string    `json:"description"`
	Manager                Address   `json:"manager"`
	Delegatees             []Address `json:"delegatees"`
	AuthorizedRedirectURIs []string  `json:"authorized_redirect_uris"`
	CurrentVersion         uint64    `json:"current_version"`

	// Versions is ordered, index 0 holds version 1.
	Versions []AppVersion `json:"versions"`

	// IsEnabled mirrors the enablement of the last entry in Versions.
	IsEnabled bool `json:"is_enabled"`

	// Metadata is not sourced from the ledger. It stays empty unless an
	// off-chain metadata source is joined in.
	Metadata Metadata `json:"metadata"`
}

// Metadata is off-chain application information.
type Metadata struct {
	ContactEmail string `json:"contact_email"`
}

// AppVersion is one immutable version of an application's tool configuration.
type AppVersion struct {
	Version            uint64     `json:"version"`
	Enabled            bool       `json:"enabled"`
	Tools              []Tool     `json:"tools"`
	DelegatedAgentPKPs []*big.Int `json:"delegated_agent_pkps"`
}

// Tool is a tool identified by its IPFS CID with the policies that govern it.
type Tool struct {
	IPFSCID  string   `json:"ipfs_cid"`
	Policies []Policy `json:"policies"`
}

// Policy is a policy identified by its IPFS CID with its ordered parameter names.
type Policy struct {
	IPFSCID        string   `json:"ipfs_cid"`
	ParameterNames []string `json:"parameter_names"`
}

// AppRecord is an application tuple as decoded from the ledger.
type AppRecord struct {
	AppID         uint64
	Name          string
	Description   string
	Manager       Address
	LatestVersion uint64
	Delegatees    []Address
	RedirectURIs  []string
}

// VersionRecord is an application version tuple as decoded from the ledger.
type VersionRecord struct {
	Version            uint64
	Enabled            bool
	DelegatedAgentPKPs []*big.Int
	Tools              []Tool
}

// AppWithVersions pairs an application with all of its versions, oldest first.
type AppWithVersions struct {
	App      AppRecord
	Versions []VersionRecord
}

// ToolsFromArrays folds the three parallel ledger arrays into Tools. Callers
// must validate lengths first (see ValidateToolArrays).
func ToolsFromArrays(cids []string, policies [][]string, params [][][]string) []Tool {
	tools := make([]Tool, len(cids))
	for i, cid := range cids {
		ps := make([]Policy, len(policies[i]))
		for j, pcid := range policies[i] {
			names := append([]string(nil), params[i][j]...)
			ps[j] = Policy{IPFSCID: pcid, ParameterNames: names}
		}
		tools[i] = Tool{IPFSCID: cid, Policies: ps}
	}
	return tools
}

// ToolArrays is the inverse of ToolsFromArrays.
func ToolArrays(tools []Tool) (cids []string, policies [][]string, params [][][]string) {
	cids = make([]string, len(tools))
	policies = make([][]string, len(tools))
	params = make([][][]string, len(tools))
	for i, t := range tools {
		cids[i] = t.IPFSCID
		policies[i] = make([]string, len(t.Policies))
		params[i] = make([][]string, len(t.Policies))
		for j, p := range t.Policies {
			policies[i][j] = p.IPFSCID
			params[i][j] = append([]string{}, p.ParameterNames...)
		}
	}
	return cids, policies, params
}
