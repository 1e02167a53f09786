package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Length bounds for application text fields.
const (
	NameMinLen        = 2
	NameMaxLen        = 50
	DescriptionMinLen = 10
	DescriptionMaxLen = 500
)

// ValidateName checks the application name length in characters.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < NameMinLen || n > NameMaxLen {
		return Invalid("name", "must be between %d and %d characters, got %d", NameMinLen, NameMaxLen, n)
	}
	return nil
}

// ValidateDescription checks the application description length in characters.
func ValidateDescription(desc string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	if n < DescriptionMinLen || n > DescriptionMaxLen {
		return Invalid("description", "must be between %d and %d characters, got %d", DescriptionMinLen, DescriptionMaxLen, n)
	}
	return nil
}

// ValidateRedirectURIs checks each URI is an absolute http(s) URL. Order is kept.
func ValidateRedirectURIs(uris []string) error {
	for i, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return Invalid("redirect_uris", "entry %d (%q) must be an absolute http(s) URL", i, raw)
		}
	}
	return nil
}

// NormalizeDelegatees parses every address and rejects duplicates.
func NormalizeDelegatees(raw []string) ([]Address, error) {
	out := make([]Address, 0, len(raw))
	seen := make(map[Address]struct{}, len(raw))
	for _, r := range raw {
		a, err := ParseAddress(r)
		if err != nil {
			return nil, err
		}
		if a.IsZero() {
			return nil, Invalid("delegatees", "zero address is not a valid delegatee")
		}
		if _, dup := seen[a]; dup {
			return nil, Invalid("delegatees", "duplicate delegatee %s", a)
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// ValidateToolArrays checks the shape of the three parallel arrays used to
// register a version: one outer entry per tool, and per tool one parameter
// list per policy.
func ValidateToolArrays(cids []string, policies [][]string, params [][][]string) error {
	if len(cids) != len(policies) || len(cids) != len(params) {
		return Invalid("tools", "mismatched lengths: %d tool cids, %d policy lists, %d parameter lists",
			len(cids), len(policies), len(params))
	}
	seen := make(map[string]struct{}, len(cids))
	for i, cid := range cids {
		if strings.TrimSpace(cid) == "" {
			return Invalid("tools", "tool %d has an empty ipfs cid", i)
		}
		if _, dup := seen[cid]; dup {
			return Invalid("tools", "duplicate tool %q", cid)
		}
		seen[cid] = struct{}{}

		if len(policies[i]) != len(params[i]) {
			return Invalid("tools", "tool %q has %d policies but %d parameter lists", cid, len(policies[i]), len(params[i]))
		}
		for j, pcid := range policies[i] {
			if strings.TrimSpace(pcid) == "" {
				return Invalid("tools", "tool %q policy %d has an empty ipfs cid", cid, j)
			}
		}
	}
	return nil
}
