package delegate_test

import (
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/stretchr/testify/require"
)

func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	client := delegatesdk.NewClient(baseURL)
	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	client := delegatesdk.NewClient(baseURL)
	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
}

// TestSignerIdentity checks the container signs as the pinned mnemonic.
func TestSignerIdentity(t *testing.T) {
	baseURL, cleanup := setupDelegateContainer(t, nil)
	defer cleanup()

	_, identity := adminClient(t, baseURL)

	signer, err := delegatesdk.NewClient(baseURL).GetSigner(t.Context())
	require.NoError(t, err)
	require.Equal(t, identity, signer.Identity)
	require.Equal(t, "EdDSA", signer.Alg)
	require.Contains(t, signer.PublicKey, "BEGIN PUBLIC KEY")
}
