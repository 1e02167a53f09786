package simledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/internal/store"
)

type writeHandler func(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error)

var writeHandlers map[string]writeHandler

func init() {
	writeHandlers = map[string]writeHandler{
		ledger.MethodRegisterApp:            registerApp,
		ledger.MethodRegisterNextAppVersion: registerNextAppVersion,
		ledger.MethodAddDelegatee:           addDelegatee,
		ledger.MethodRemoveDelegatee:        removeDelegatee,
		ledger.MethodEnableAppVersion:       enableAppVersion,
		ledger.MethodPermitAppVersion:       permitAppVersion,
	}
}

func bigU(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

// registerApp(name, description, redirectUris[], delegatees[])
func registerApp(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	if err := a.want(4); err != nil {
		return nil, err
	}
	name, err := a.string(0)
	if err != nil {
		return nil, err
	}
	desc, err := a.string(1)
	if err != nil {
		return nil, err
	}
	uris, err := a.strings(2)
	if err != nil {
		return nil, err
	}
	rawDelegatees, err := a.strings(3)
	if err != nil {
		return nil, err
	}
	if name == "" || desc == "" {
		return nil, errInvalidArgs
	}

	delegatees := make([]domain.Address, 0, len(rawDelegatees))
	seen := make(map[domain.Address]bool, len(rawDelegatees))
	for _, raw := range rawDelegatees {
		d, err := domain.ParseAddress(raw)
		if err != nil || d.IsZero() {
			return nil, errInvalidArgs
		}
		if seen[d] {
			return nil, reverted(ReasonDelegateeAlreadyRegistered)
		}
		seen[d] = true
		delegatees = append(delegatees, d)
	}

	id, err := st.Apps().CreateApp(ctx, domain.AppRecord{
		Name:          name,
		Description:   desc,
		Manager:       from,
		LatestVersion: 1,
		Delegatees:    delegatees,
		RedirectURIs:  uris,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Versions().CreateVersion(ctx, id, domain.VersionRecord{Version: 1, Enabled: true}); err != nil {
		return nil, err
	}

	return []ledger.Event{
		{Name: ledger.EventAppRegistered, Fields: map[string]any{"appId": bigU(id), "manager": string(from)}},
		{Name: ledger.EventAppVersionRegistered, Fields: map[string]any{"appId": bigU(id), "version": bigU(1)}},
	}, nil
}

// registerNextAppVersion(appId, toolIpfsCids[], toolPolicies[][], toolPolicyParameterNames[][][])
func registerNextAppVersion(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	if err := a.want(4); err != nil {
		return nil, err
	}
	appID, err := a.uint(0)
	if err != nil {
		return nil, err
	}
	cids, err := a.strings(1)
	if err != nil {
		return nil, err
	}
	policies, err := a.strings2(2)
	if err != nil {
		return nil, err
	}
	params, err := a.strings3(3)
	if err != nil {
		return nil, err
	}

	app, err := managedApp(ctx, st, appID, from)
	if err != nil {
		return nil, err
	}

	if len(cids) != len(policies) || len(cids) != len(params) {
		return nil, reverted(ReasonToolsAndPoliciesLengthMismatch)
	}
	for i := range cids {
		if len(policies[i]) != len(params[i]) {
			return nil, reverted(ReasonToolsAndPoliciesLengthMismatch)
		}
	}

	next := app.LatestVersion + 1
	v := domain.VersionRecord{Version: next, Enabled: true, Tools: domain.ToolsFromArrays(cids, policies, params)}
	if err := st.Versions().CreateVersion(ctx, appID, v); err != nil {
		return nil, err
	}
	if err := st.Apps().SetLatestVersion(ctx, appID, next); err != nil {
		return nil, err
	}

	return []ledger.Event{
		{Name: ledger.EventAppVersionRegistered, Fields: map[string]any{"appId": bigU(appID), "version": bigU(next)}},
	}, nil
}

// addDelegatee(appId, delegatee)
func addDelegatee(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	appID, d, err := appAndDelegatee(a)
	if err != nil {
		return nil, err
	}
	if _, err := managedApp(ctx, st, appID, from); err != nil {
		return nil, err
	}

	if err := st.Apps().AddDelegatee(ctx, appID, d); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, reverted(ReasonDelegateeAlreadyRegistered)
		}
		return nil, err
	}
	return []ledger.Event{
		{Name: ledger.EventDelegateeAdded, Fields: map[string]any{"appId": bigU(appID), "delegatee": string(d)}},
	}, nil
}

// removeDelegatee(appId, delegatee)
func removeDelegatee(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	appID, d, err := appAndDelegatee(a)
	if err != nil {
		return nil, err
	}
	if _, err := managedApp(ctx, st, appID, from); err != nil {
		return nil, err
	}

	if err := st.Apps().RemoveDelegatee(ctx, appID, d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reverted(ReasonDelegateeNotRegistered)
		}
		return nil, err
	}
	return []ledger.Event{
		{Name: ledger.EventDelegateeRemoved, Fields: map[string]any{"appId": bigU(appID), "delegatee": string(d)}},
	}, nil
}

// enableAppVersion(appId, version, enabled)
func enableAppVersion(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	if err := a.want(3); err != nil {
		return nil, err
	}
	appID, err := a.uint(0)
	if err != nil {
		return nil, err
	}
	version, err := a.uint(1)
	if err != nil {
		return nil, err
	}
	enabled, err := a.bool(2)
	if err != nil {
		return nil, err
	}

	app, err := managedApp(ctx, st, appID, from)
	if err != nil {
		return nil, err
	}
	if version == 0 || version > app.LatestVersion {
		return nil, reverted(ReasonAppVersionNotRegistered)
	}

	if err := st.Versions().SetEnabled(ctx, appID, version, enabled); err != nil {
		return nil, err
	}
	return []ledger.Event{
		{Name: ledger.EventAppEnabled, Fields: map[string]any{"appId": bigU(appID), "version": bigU(version), "enabled": enabled}},
	}, nil
}

// permitAppVersion(appId, version, pkpTokenId) is sent by an agent owner;
// it is not restricted to the manager.
func permitAppVersion(ctx context.Context, st store.Store, from domain.Address, a args) ([]ledger.Event, error) {
	if err := a.want(3); err != nil {
		return nil, err
	}
	appID, err := a.uint(0)
	if err != nil {
		return nil, err
	}
	version, err := a.uint(1)
	if err != nil {
		return nil, err
	}
	tokenID, err := a.bigInt(2)
	if err != nil {
		return nil, err
	}

	if _, err := st.Apps().GetApp(ctx, appID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reverted(ReasonAppNotRegistered)
		}
		return nil, err
	}
	v, err := st.Versions().GetVersion(ctx, appID, version)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reverted(ReasonAppVersionNotRegistered)
		}
		return nil, err
	}
	if !v.Enabled {
		return nil, reverted(ReasonAppVersionNotEnabled)
	}

	if err := st.Versions().AddAgent(ctx, appID, version, tokenID); err != nil {
		return nil, err
	}
	return []ledger.Event{
		{Name: ledger.EventAppVersionPermitted, Fields: map[string]any{"appId": bigU(appID), "version": bigU(version), "pkpTokenId": tokenID}},
	}, nil
}

func appAndDelegatee(a args) (uint64, domain.Address, error) {
	if err := a.want(2); err != nil {
		return 0, "", err
	}
	appID, err := a.uint(0)
	if err != nil {
		return 0, "", err
	}
	d, err := a.address(1)
	if err != nil {
		return 0, "", err
	}
	return appID, d, nil
}

// managedApp loads appID and checks that from manages it.
func managedApp(ctx context.Context, st store.Store, appID uint64, from domain.Address) (domain.AppRecord, error) {
	app, err := st.Apps().GetApp(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.AppRecord{}, reverted(ReasonAppNotRegistered)
	}
	if err != nil {
		return domain.AppRecord{}, err
	}
	if app.Manager != from {
		return domain.AppRecord{}, reverted(ReasonNotAppManager)
	}
	return app, nil
}
