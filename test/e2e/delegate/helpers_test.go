package delegate_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/kv/memkv"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for delegate service end-to-end
 * tests. This includes container setup, admin credentials and assertions.
 */

const (
	testImageName = "delegate-test:latest"

	// signerMnemonic pins the service key so tests can mint write credentials
	// for the same identity the container signs with.
	signerMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	audience       = "delegate-e2e"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete. Short runs skip the suite entirely.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping delegate e2e tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Delegate Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Delegate Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/delegate/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might already be gone
}

// setupDelegateContainer starts the service and returns its base URL.
// Extra env entries override the defaults.
func setupDelegateContainer(t *testing.T, extra map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"SIGNER_MNEMONIC":     signerMnemonic,
		"CREDENTIAL_AUDIENCE": audience,
		"SESSION_BACKEND":     "memory",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
	}
	for k, v := range extra {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port()), cleanup
}

// adminClient returns a client carrying a write credential signed with the
// container's own key, along with that key's identity address.
func adminClient(t *testing.T, baseURL string) (*delegatesdk.Client, string) {
	t.Helper()

	signer, err := pkp.NewLocalFromMnemonic(signerMnemonic)
	require.NoError(t, err)
	identity, err := pkp.Identity(signer)
	require.NoError(t, err)

	st, err := credential.NewStore(memkv.New(), "e2e")
	require.NoError(t, err)
	c, err := credential.NewIssuer(st, credential.IssuerOptions{Logger: slogx.Discard()}).
		Issue(t.Context(), signer, identity, nil, 10, []string{audience})
	require.NoError(t, err)

	return delegatesdk.NewClient(baseURL).WithToken(c.Token), identity
}

func assertHealthy(t *testing.T, health *delegatesdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
