package delegate_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/stretchr/testify/require"
)

const delegatee = "0x2222222222222222222222222222222222222222"

// TestRegistryLifecycle walks an application from registration through a
// second version and delegatee changes against a running container.
func TestRegistryLifecycle(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	ctx := t.Context()
	admin, identity := adminClient(t, baseURL)
	public := delegatesdk.NewClient(baseURL)

	reg, err := admin.RegisterApp(ctx, delegatesdk.RegisterAppRequest{
		Name:         "Tool X",
		Description:  "a tool for testing delegation",
		RedirectURIs: []string{"https://app.example.com/cb"},
		Delegatees:   []string{delegatee},
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.TxHash)

	list, err := public.ListApps(ctx, identity)
	require.NoError(t, err)
	require.Len(t, list.Apps, 1)
	require.Equal(t, identity, list.Apps[0].Manager)

	_, err = admin.RegisterVersion(ctx, reg.AppID, delegatesdk.RegisterVersionRequest{
		Version: 2,
		Tools:   []delegatesdk.Tool{{IPFSCID: "QmTool", Policies: []delegatesdk.Policy{}}},
	})
	require.NoError(t, err)

	_, err = admin.RemoveDelegatee(ctx, reg.AppID, delegatee)
	require.NoError(t, err)

	app, err := public.GetApp(ctx, reg.AppID)
	require.NoError(t, err)
	require.EqualValues(t, 2, app.CurrentVersion)
	require.Empty(t, app.Delegatees)
}

func TestWritesRequireCredential(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	_, err := delegatesdk.NewClient(baseURL).RegisterApp(t.Context(), delegatesdk.RegisterAppRequest{
		Name:        "Tool X",
		Description: "a tool for testing delegation",
	})
	require.True(t, delegatesdk.IsUnauthorized(err), "got %v", err)
}

func TestMissingApplicationIsNotFound(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	_, err := delegatesdk.NewClient(baseURL).GetApp(t.Context(), 42)
	require.True(t, delegatesdk.IsNotFound(err), "got %v", err)
}

// TestCredentialRateLimit runs with production limits so the credential
// bucket actually runs dry.
func TestCredentialRateLimit(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	client := delegatesdk.NewClient(baseURL)
	var limited bool
	for range 30 {
		_, err := client.VerifyCredential(t.Context(), delegatesdk.VerifyRequest{Credential: "not.a.credential"})
		var apiErr *delegatesdk.APIError
		if errors.As(err, &apiErr) && apiErr.Code == delegatesdk.ErrorCodeRateLimited {
			limited = true
			break
		}
	}
	require.True(t, limited, "expected the credential limiter to trip")
}
