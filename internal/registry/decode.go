package registry

import (
	"fmt"
	"math/big"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
)

// The decoders below turn untyped ledger output into domain records by
// position. Any shape mismatch is a ValidationError naming the offending
// path; nothing untyped is passed further in.

func decodeAppsWithVersions(out []any) ([]domain.AppWithVersions, error) {
	if len(out) != 1 {
		return nil, shapeErr("apps", "want 1 output, got %d", len(out))
	}
	list, err := asList(out[0], "apps")
	if err != nil {
		return nil, err
	}

	res := make([]domain.AppWithVersions, len(list))
	for i, item := range list {
		path := fmt.Sprintf("apps[%d]", i)
		pair, err := asTuple(item, 2, path)
		if err != nil {
			return nil, err
		}
		app, err := decodeApp(pair[0], path+".app")
		if err != nil {
			return nil, err
		}
		rawVersions, err := asList(pair[1], path+".versions")
		if err != nil {
			return nil, err
		}
		versions := make([]domain.VersionRecord, len(rawVersions))
		for j, rv := range rawVersions {
			if versions[j], err = decodeVersion(rv, fmt.Sprintf("%s.versions[%d]", path, j)); err != nil {
				return nil, err
			}
		}
		res[i] = domain.AppWithVersions{App: app, Versions: versions}
	}
	return res, nil
}

// decodeApp reads (appId, name, description, manager, latestVersion, delegatees[], redirectUris[]).
func decodeApp(v any, path string) (domain.AppRecord, error) {
	t, err := asTuple(v, 7, path)
	if err != nil {
		return domain.AppRecord{}, err
	}

	var app domain.AppRecord
	if app.AppID, err = asUint(t[0], path+".appId"); err != nil {
		return domain.AppRecord{}, err
	}
	if app.Name, err = asString(t[1], path+".name"); err != nil {
		return domain.AppRecord{}, err
	}
	if app.Description, err = asString(t[2], path+".description"); err != nil {
		return domain.AppRecord{}, err
	}
	if app.Manager, err = asAddress(t[3], path+".manager"); err != nil {
		return domain.AppRecord{}, err
	}
	if app.LatestVersion, err = asUint(t[4], path+".latestVersion"); err != nil {
		return domain.AppRecord{}, err
	}

	delegatees, err := asStrings(t[5], path+".delegatees")
	if err != nil {
		return domain.AppRecord{}, err
	}
	app.Delegatees = make([]domain.Address, len(delegatees))
	for i, d := range delegatees {
		if app.Delegatees[i], err = asAddress(d, fmt.Sprintf("%s.delegatees[%d]", path, i)); err != nil {
			return domain.AppRecord{}, err
		}
	}

	if app.RedirectURIs, err = asStrings(t[6], path+".redirectUris"); err != nil {
		return domain.AppRecord{}, err
	}
	return app, nil
}

// decodeVersion reads (version, enabled, delegatedAgentPkpTokenIds[], tools[]).
func decodeVersion(v any, path string) (domain.VersionRecord, error) {
	t, err := asTuple(v, 4, path)
	if err != nil {
		return domain.VersionRecord{}, err
	}

	var rec domain.VersionRecord
	if rec.Version, err = asUint(t[0], path+".version"); err != nil {
		return domain.VersionRecord{}, err
	}
	enabled, ok := t[1].(bool)
	if !ok {
		return domain.VersionRecord{}, shapeErr(path+".enabled", "want bool, got %T", t[1])
	}
	rec.Enabled = enabled

	agents, err := asList(t[2], path+".delegatedAgentPkpTokenIds")
	if err != nil {
		return domain.VersionRecord{}, err
	}
	rec.DelegatedAgentPKPs = make([]*big.Int, len(agents))
	for i, a := range agents {
		if rec.DelegatedAgentPKPs[i], err = asBig(a, fmt.Sprintf("%s.delegatedAgentPkpTokenIds[%d]", path, i)); err != nil {
			return domain.VersionRecord{}, err
		}
	}

	tools, err := asList(t[3], path+".tools")
	if err != nil {
		return domain.VersionRecord{}, err
	}
	rec.Tools = make([]domain.Tool, len(tools))
	for i, raw := range tools {
		if rec.Tools[i], err = decodeTool(raw, fmt.Sprintf("%s.tools[%d]", path, i)); err != nil {
			return domain.VersionRecord{}, err
		}
	}
	return rec, nil
}

func decodeTool(v any, path string) (domain.Tool, error) {
	t, err := asTuple(v, 2, path)
	if err != nil {
		return domain.Tool{}, err
	}
	cid, err := asString(t[0], path+".ipfsCid")
	if err != nil {
		return domain.Tool{}, err
	}
	rawPolicies, err := asList(t[1], path+".policies")
	if err != nil {
		return domain.Tool{}, err
	}

	tool := domain.Tool{IPFSCID: cid, Policies: make([]domain.Policy, len(rawPolicies))}
	for i, rp := range rawPolicies {
		ppath := fmt.Sprintf("%s.policies[%d]", path, i)
		pt, err := asTuple(rp, 2, ppath)
		if err != nil {
			return domain.Tool{}, err
		}
		pcid, err := asString(pt[0], ppath+".ipfsCid")
		if err != nil {
			return domain.Tool{}, err
		}
		names, err := asStrings(pt[1], ppath+".parameterNames")
		if err != nil {
			return domain.Tool{}, err
		}
		tool.Policies[i] = domain.Policy{IPFSCID: pcid, ParameterNames: names}
	}
	return tool, nil
}

// eventUint reads a numeric field from the first event called name.
func eventUint(r *ledger.Receipt, name, field string) (uint64, error) {
	e, ok := r.Event(name)
	if !ok {
		return 0, shapeErr("receipt", "missing %s event", name)
	}
	return asUint(e.Fields[field], name+"."+field)
}

func shapeErr(path, format string, args ...any) error {
	return domain.Invalid("ledger."+path, format, args...)
}

func asTuple(v any, n int, path string) ([]any, error) {
	t, ok := v.([]any)
	if !ok {
		return nil, shapeErr(path, "want tuple, got %T", v)
	}
	if len(t) != n {
		return nil, shapeErr(path, "want %d fields, got %d", n, len(t))
	}
	return t, nil
}

func asList(v any, path string) ([]any, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, shapeErr(path, "want array, got %T", v)
	}
	return l, nil
}

func asBig(v any, path string) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		return nil, shapeErr(path, "want integer, got %T", v)
	}
	if n.Sign() < 0 {
		return nil, shapeErr(path, "negative integer %s", n)
	}
	return new(big.Int).Set(n), nil
}

func asUint(v any, path string) (uint64, error) {
	n, err := asBig(v, path)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, shapeErr(path, "integer %s out of range", n)
	}
	return n.Uint64(), nil
}

func asString(v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", shapeErr(path, "want string, got %T", v)
	}
	return s, nil
}

func asStrings(v any, path string) ([]string, error) {
	l, err := asList(v, path)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(l))
	for i, e := range l {
		if out[i], err = asString(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func asAddress(v any, path string) (domain.Address, error) {
	s, err := asString(v, path)
	if err != nil {
		return "", err
	}
	a, err := domain.ParseAddress(s)
	if err != nil {
		return "", shapeErr(path, "invalid address %q", s)
	}
	return a, nil
}
