package delegate_test

import (
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/stretchr/testify/require"
)

func TestSessionCredentialRoundTrip(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, map[string]string{
		"RATELIMIT_CREDENTIAL_REQUESTS": "1000",
		"RATELIMIT_CREDENTIAL_BURST":    "1000",
	})
	defer cleanup()

	ctx := t.Context()
	client := delegatesdk.NewClient(baseURL)

	sess, err := client.CreateSession(ctx)
	require.NoError(t, err)

	issued, err := client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{
		Audience: []string{"dashboard"},
		Payload:  map[string]any{"role": "viewer"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"dashboard"}, issued.Audience)

	stored, err := client.GetCredential(ctx, sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, issued.Credential, stored.Credential)

	v, err := client.VerifyCredential(ctx, delegatesdk.VerifyRequest{Credential: issued.Credential})
	require.NoError(t, err)
	require.True(t, v.Valid)

	require.NoError(t, client.EndSession(ctx, sess.SessionID))
	_, err = client.GetCredential(ctx, sess.SessionID)
	require.True(t, delegatesdk.IsNotFound(err), "got %v", err)
}

// TestSessionCannotMintWriteCredential checks the service audience is
// reserved for the key holder.
func TestSessionCannotMintWriteCredential(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	ctx := t.Context()
	client := delegatesdk.NewClient(baseURL)
	sess, err := client.CreateSession(ctx)
	require.NoError(t, err)

	_, err = client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{Audience: []string{audience}})
	require.True(t, delegatesdk.IsForbidden(err), "got %v", err)
}
