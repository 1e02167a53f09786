package http

import (
	"strconv"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
)

func toApplication(a domain.Application) delegatesdk.Application {
	out := delegatesdk.Application{
		AppID:                  a.AppID,
		Name:                   a.Name,
		Description:            a.Description,
		Manager:                string(a.Manager),
		Delegatees:             make([]string, len(a.Delegatees)),
		AuthorizedRedirectURIs: a.AuthorizedRedirectURIs,
		CurrentVersion:         a.CurrentVersion,
		Versions:               make([]delegatesdk.AppVersion, len(a.Versions)),
		IsEnabled:              a.IsEnabled,
		Metadata:               delegatesdk.Metadata{ContactEmail: a.Metadata.ContactEmail},
	}
	for i, d := range a.Delegatees {
		out.Delegatees[i] = string(d)
	}
	for i, v := range a.Versions {
		out.Versions[i] = toVersion(domain.VersionRecord{
			Version:            v.Version,
			Enabled:            v.Enabled,
			Tools:              v.Tools,
			DelegatedAgentPKPs: v.DelegatedAgentPKPs,
		})
	}
	return out
}

func toVersion(v domain.VersionRecord) delegatesdk.AppVersion {
	out := delegatesdk.AppVersion{
		Version:            v.Version,
		Enabled:            v.Enabled,
		Tools:              make([]delegatesdk.Tool, len(v.Tools)),
		DelegatedAgentPKPs: make([]string, len(v.DelegatedAgentPKPs)),
	}
	for i, t := range v.Tools {
		ps := make([]delegatesdk.Policy, len(t.Policies))
		for j, p := range t.Policies {
			ps[j] = delegatesdk.Policy{IPFSCID: p.IPFSCID, ParameterNames: p.ParameterNames}
		}
		out.Tools[i] = delegatesdk.Tool{IPFSCID: t.IPFSCID, Policies: ps}
	}
	for i, pkp := range v.DelegatedAgentPKPs {
		out.DelegatedAgentPKPs[i] = pkp.String()
	}
	return out
}

// toolArrays flattens request tools into the ledger's three parallel arrays.
func toolArrays(tools []delegatesdk.Tool) ([]string, [][]string, [][][]string) {
	dt := make([]domain.Tool, len(tools))
	for i, t := range tools {
		ps := make([]domain.Policy, len(t.Policies))
		for j, p := range t.Policies {
			ps[j] = domain.Policy{IPFSCID: p.IPFSCID, ParameterNames: p.ParameterNames}
		}
		dt[i] = domain.Tool{IPFSCID: t.IPFSCID, Policies: ps}
	}
	return domain.ToolArrays(dt)
}

func toCredential(c credential.Credential) delegatesdk.CredentialResponse {
	return delegatesdk.CredentialResponse{
		Credential: c.Token,
		Alg:        c.Alg,
		Issuer:     c.Claims.Issuer,
		Audience:   c.Claims.Audience,
		IssuedAt:   c.Claims.IssuedAt,
		ExpiresAt:  c.Claims.ExpiresAt,
	}
}

func parseUintPath(s, field string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, domain.Invalid(field, "must be a positive integer, got %q", s)
	}
	return n, nil
}
