package simledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/internal/store"
)

// Query answers registry reads from committed state.
//
//	getAppsByManager(manager) -> ([(app, version[])...])
//	getAppById(appId)         -> (app)
//	getAppVersion(appId, v)   -> (app, version)
func (l *Ledger) Query(ctx context.Context, method string, callArgs ...any) ([]any, error) {
	a := args(callArgs)

	switch method {
	case ledger.MethodGetAppsByManager:
		if err := a.want(1); err != nil {
			return nil, queryRevert(err)
		}
		manager, err := a.address(0)
		if err != nil {
			return nil, queryRevert(err)
		}
		return l.appsByManager(ctx, manager)

	case ledger.MethodGetAppByID:
		if err := a.want(1); err != nil {
			return nil, queryRevert(err)
		}
		appID, err := a.uint(0)
		if err != nil {
			return nil, queryRevert(err)
		}
		app, err := l.app(ctx, appID)
		if err != nil {
			return nil, err
		}
		return []any{appTuple(app)}, nil

	case ledger.MethodGetAppVersion:
		if err := a.want(2); err != nil {
			return nil, queryRevert(err)
		}
		appID, err := a.uint(0)
		if err != nil {
			return nil, queryRevert(err)
		}
		version, err := a.uint(1)
		if err != nil {
			return nil, queryRevert(err)
		}
		app, err := l.app(ctx, appID)
		if err != nil {
			return nil, err
		}
		v, err := l.store.Versions().GetVersion(ctx, appID, version)
		if errors.Is(err, store.ErrNotFound) {
			return nil, queryRevert(reverted(ReasonAppVersionNotRegistered))
		}
		if err != nil {
			return nil, err
		}
		return []any{appTuple(app), versionTuple(v)}, nil

	default:
		return nil, fmt.Errorf("simledger: unknown method %q", method)
	}
}

func (l *Ledger) appsByManager(ctx context.Context, manager domain.Address) ([]any, error) {
	ids, err := l.store.Apps().ListAppIDsByManager(ctx, manager)
	if err != nil {
		return nil, err
	}

	list := make([]any, 0, len(ids))
	for _, id := range ids {
		app, err := l.store.Apps().GetApp(ctx, id)
		if err != nil {
			return nil, err
		}
		versions, err := l.store.Versions().ListVersions(ctx, id)
		if err != nil {
			return nil, err
		}

		vs := make([]any, len(versions))
		for i, v := range versions {
			vs[i] = versionTuple(v)
		}
		list = append(list, []any{appTuple(app), vs})
	}
	return []any{list}, nil
}

func (l *Ledger) app(ctx context.Context, appID uint64) (domain.AppRecord, error) {
	app, err := l.store.Apps().GetApp(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.AppRecord{}, queryRevert(reverted(ReasonAppNotRegistered))
	}
	return app, err
}

func queryRevert(err error) error {
	var rv *revert
	if errors.As(err, &rv) {
		return &ledger.RevertError{Reason: rv.reason}
	}
	return err
}

// appTuple is (appId, name, description, manager, latestVersion, delegatees[], redirectUris[]).
func appTuple(a domain.AppRecord) []any {
	delegatees := make([]any, len(a.Delegatees))
	for i, d := range a.Delegatees {
		delegatees[i] = string(d)
	}
	uris := make([]any, len(a.RedirectURIs))
	for i, u := range a.RedirectURIs {
		uris[i] = u
	}
	return []any{bigU(a.AppID), a.Name, a.Description, string(a.Manager), bigU(a.LatestVersion), delegatees, uris}
}

// versionTuple is (version, enabled, delegatedAgentPkpTokenIds[], tools[])
// with tool (ipfsCid, policies[]) and policy (ipfsCid, parameterNames[]).
func versionTuple(v domain.VersionRecord) []any {
	agents := make([]any, len(v.DelegatedAgentPKPs))
	for i, id := range v.DelegatedAgentPKPs {
		agents[i] = id
	}

	tools := make([]any, len(v.Tools))
	for i, t := range v.Tools {
		policies := make([]any, len(t.Policies))
		for j, p := range t.Policies {
			names := make([]any, len(p.ParameterNames))
			for k, n := range p.ParameterNames {
				names[k] = n
			}
			policies[j] = []any{p.IPFSCID, names}
		}
		tools[i] = []any{t.IPFSCID, policies}
	}
	return []any{bigU(v.Version), v.Enabled, agents, tools}
}
