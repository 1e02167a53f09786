package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
)

// Registry is the registry surface DelegationManager drives.
type Registry interface {
	GetAppByID(ctx context.Context, appID uint64) (domain.AppRecord, error)
	GetAppVersion(ctx context.Context, appID, version uint64) (domain.AppRecord, domain.VersionRecord, error)

	RegisterNextAppVersion(ctx context.Context, appID uint64, toolIpfsCids []string, toolPolicies [][]string, toolPolicyParameterNames [][][]string) (uint64, *ledger.Receipt, error)
	AddDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error)
	RemoveDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error)
	EnableAppVersion(ctx context.Context, appID, version uint64, enabled bool) (*ledger.Receipt, error)
}

// DelegationManager applies manager operations to an application. It never
// checks locally who the caller is: the ledger enforces that, and its
// rejections come back as AuthorizationError.
type DelegationManager struct {
	registry Registry
}

func NewDelegationManager(r Registry) *DelegationManager {
	return &DelegationManager{registry: r}
}

// ToggleVersion sets a version's enablement. The call is always sent, even
// when the version is already in the desired state, so repeating it is
// harmless.
func (m *DelegationManager) ToggleVersion(ctx context.Context, appID, version uint64, enabled bool) (*ledger.Receipt, error) {
	r, err := m.registry.EnableAppVersion(ctx, appID, version, enabled)
	return r, asAuthorization(err, ledger.MethodEnableAppVersion, appID)
}

// ToggleCurrentVersion flips the enablement of the application's latest
// version and returns the new state.
func (m *DelegationManager) ToggleCurrentVersion(ctx context.Context, appID uint64) (bool, *ledger.Receipt, error) {
	app, err := m.registry.GetAppByID(ctx, appID)
	if err != nil {
		return false, nil, err
	}
	_, v, err := m.registry.GetAppVersion(ctx, appID, app.LatestVersion)
	if err != nil {
		return false, nil, err
	}

	r, err := m.ToggleVersion(ctx, appID, app.LatestVersion, !v.Enabled)
	if err != nil {
		return false, nil, err
	}
	return !v.Enabled, r, nil
}

func (m *DelegationManager) AddDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error) {
	r, err := m.registry.AddDelegatee(ctx, appID, delegatee)
	return r, asAuthorization(err, ledger.MethodAddDelegatee, appID)
}

func (m *DelegationManager) RemoveDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error) {
	r, err := m.registry.RemoveDelegatee(ctx, appID, delegatee)
	return r, asAuthorization(err, ledger.MethodRemoveDelegatee, appID)
}

// RegisterNextVersion registers targetVersion, which must be exactly one past
// the application's current version.
func (m *DelegationManager) RegisterNextVersion(
	ctx context.Context,
	appID, targetVersion uint64,
	toolIpfsCids []string,
	toolPolicies [][]string,
	toolPolicyParameterNames [][][]string,
) (uint64, *ledger.Receipt, error) {
	if err := domain.ValidateToolArrays(toolIpfsCids, toolPolicies, toolPolicyParameterNames); err != nil {
		return 0, nil, err
	}

	app, err := m.registry.GetAppByID(ctx, appID)
	if err != nil {
		return 0, nil, err
	}
	if want := app.LatestVersion + 1; targetVersion != want {
		return 0, nil, domain.Invalid("version", "next version of app %d is %d, not %d", appID, want, targetVersion)
	}

	v, r, err := m.registry.RegisterNextAppVersion(ctx, appID, toolIpfsCids, toolPolicies, toolPolicyParameterNames)
	if err != nil {
		return 0, nil, asAuthorization(err, ledger.MethodRegisterNextAppVersion, appID)
	}
	return v, r, nil
}

// asAuthorization rewraps ledger rejections that mean "caller is not the
// manager".
func asAuthorization(err error, op string, appID uint64) error {
	var lerr *domain.LedgerError
	if !errors.As(err, &lerr) || !IsAuthorizationReason(lerr.Reason) {
		return err
	}
	return &domain.AuthorizationError{Op: op, AppID: appID, Reason: lerr.Reason, Err: err}
}

// IsAuthorizationReason reports whether a revert reason denies the caller.
func IsAuthorizationReason(reason string) bool {
	r := strings.ToLower(reason)
	return r == "notappmanager" ||
		strings.Contains(r, "not manager") ||
		strings.Contains(r, "not app manager") ||
		strings.Contains(r, "unauthorized")
}
