package http_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/domain"
	httpapi "github.com/aussiebroadwan/delegate/internal/http"
	"github.com/aussiebroadwan/delegate/internal/kv/memkv"
	"github.com/aussiebroadwan/delegate/internal/ledger/simledger"
	"github.com/aussiebroadwan/delegate/internal/metrics"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/internal/store/drivers/sqlite"
	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/delegatesdk"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	audience = "delegate"
	alice    = "0x2222222222222222222222222222222222222222"
	stranger = domain.Address("0x9999999999999999999999999999999999999999")
)

type harness struct {
	server   *httptest.Server
	client   *delegatesdk.Client
	registry *registry.Client
	signer   pkp.Signer
	identity string
	token    string
	sessions *credential.Sessions
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	l := simledger.New(st, simledger.Config{Logger: slogx.Discard()})
	require.NoError(t, l.Start(ctx))

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := pkp.NewLocal(pemKey)
	require.NoError(t, err)
	identity, err := pkp.Identity(signer)
	require.NoError(t, err)

	m := metrics.New()
	reg := registry.NewClient(l, registry.ClientOptions{
		Sender:    domain.Address(identity),
		TxTimeout: 5 * time.Second,
		Logger:    slogx.Discard(),
		Metrics:   m,
	})
	pages, err := consent.New("http://localhost:3000", nil)
	require.NoError(t, err)

	kv := memkv.New()
	verifier := credential.NewVerifier(credential.VerifierOptions{Metrics: m})

	r := httpapi.NewRouter(signer, identity, audience, "test", st, slogx.Discard())
	r.Registry = reg
	r.Apps = &registry.Builder{Registry: reg, Metadata: registry.StoreMetadata{Repo: st.Metadata()}}
	sessions := credential.NewSessions(kv)
	r.Sessions = sessions
	r.IssuerOptions = credential.IssuerOptions{Logger: slogx.Discard(), Metrics: m}
	r.Verifier = verifier
	r.Consent = pages
	r.Metrics = m.Handler()
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		_ = l.Close()
		_ = st.Close()
	})

	// Credentials for the service audience are minted by the key holder,
	// never through a session endpoint.
	admin, err := credential.NewStore(memkv.New(), "admin")
	require.NoError(t, err)
	c, err := credential.NewIssuer(admin, credential.IssuerOptions{Logger: slogx.Discard()}).
		Issue(ctx, signer, identity, nil, 10, []string{audience})
	require.NoError(t, err)

	return harness{
		server:   srv,
		client:   delegatesdk.NewClient(srv.URL),
		registry: reg,
		signer:   signer,
		identity: identity,
		token:    c.Token,
		sessions: sessions,
	}
}

func (h harness) authed() *delegatesdk.Client { return h.client.WithToken(h.token) }

func apiError(t *testing.T, err error) *delegatesdk.APIError {
	t.Helper()
	var apiErr *delegatesdk.APIError
	require.True(t, errors.As(err, &apiErr), "want APIError, got %v", err)
	return apiErr
}

func TestApplicationFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.authed()

	reg, err := c.RegisterApp(ctx, delegatesdk.RegisterAppRequest{
		Name:         "Tool X",
		Description:  "a tool for testing delegation",
		RedirectURIs: []string{"https://app.example.com/cb"},
		Delegatees:   []string{alice},
		ContactEmail: "ops@example.com",
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, reg.AppID)
	require.NotEmpty(t, reg.TxHash)

	list, err := h.client.ListApps(ctx, h.identity)
	require.NoError(t, err)
	require.Len(t, list.Apps, 1)
	app := list.Apps[0]
	require.Equal(t, "Tool X", app.Name)
	require.Equal(t, h.identity, app.Manager)
	require.Equal(t, []string{alice}, app.Delegatees)
	require.EqualValues(t, 1, app.CurrentVersion)
	require.True(t, app.IsEnabled)
	require.Equal(t, "ops@example.com", app.Metadata.ContactEmail)

	ver, err := c.RegisterVersion(ctx, reg.AppID, delegatesdk.RegisterVersionRequest{
		Version: 2,
		Tools: []delegatesdk.Tool{{
			IPFSCID:  "QmTool",
			Policies: []delegatesdk.Policy{{IPFSCID: "QmPolicy", ParameterNames: []string{"maxAmount"}}},
		}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, ver.Version)

	_, err = c.SetVersionEnabled(ctx, reg.AppID, 2, false)
	require.NoError(t, err)

	got, err := h.client.GetApp(ctx, reg.AppID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.CurrentVersion)
	require.Len(t, got.Versions, 2)
	require.False(t, got.IsEnabled)

	v2, err := h.client.GetAppVersion(ctx, reg.AppID, 2)
	require.NoError(t, err)
	require.Equal(t, "QmTool", v2.Version.Tools[0].IPFSCID)
	require.Equal(t, []string{"maxAmount"}, v2.Version.Tools[0].Policies[0].ParameterNames)

	agents, err := h.client.GetDelegatedAgents(ctx, reg.AppID, 2)
	require.NoError(t, err)
	require.Empty(t, agents.PKPs)

	const bob = "0x4444444444444444444444444444444444444444"
	_, err = c.AddDelegatee(ctx, reg.AppID, bob)
	require.NoError(t, err)
	tx, err := c.RemoveDelegatee(ctx, reg.AppID, alice)
	require.NoError(t, err)
	require.NotZero(t, tx.Block)

	got, err = h.client.GetApp(ctx, reg.AppID)
	require.NoError(t, err)
	require.Equal(t, []string{bob}, got.Delegatees)
}

func TestVersionMustBeNext(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.authed()

	reg, err := c.RegisterApp(ctx, delegatesdk.RegisterAppRequest{Name: "Tool X", Description: "a tool for testing delegation"})
	require.NoError(t, err)

	_, err = c.RegisterVersion(ctx, reg.AppID, delegatesdk.RegisterVersionRequest{Version: 3})
	require.True(t, delegatesdk.IsValidation(err), "got %v", err)
}

func TestWritesRequireCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.RegisterApp(ctx, delegatesdk.RegisterAppRequest{Name: "Tool X", Description: "a tool for testing delegation"})
	require.True(t, delegatesdk.IsUnauthorized(err), "got %v", err)

	_, err = h.client.WithToken("not-a-credential").AddDelegatee(ctx, 1, alice)
	require.True(t, delegatesdk.IsUnauthorized(err), "got %v", err)

	// A credential signed by the right key but for another audience is refused.
	sess, err := h.client.CreateSession(ctx)
	require.NoError(t, err)
	other, err := h.client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{Audience: []string{"dashboard"}})
	require.NoError(t, err)
	_, err = h.client.WithToken(other.Credential).AddDelegatee(ctx, 1, alice)
	require.True(t, delegatesdk.IsUnauthorized(err), "got %v", err)
}

func TestNonManagerIsForbidden(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	appID, _, err := h.registry.WithSender(stranger).RegisterApp(ctx, registry.RegisterAppParams{
		Name:        "Someone Else",
		Description: "an application managed by another account",
	})
	require.NoError(t, err)

	_, err = h.authed().AddDelegatee(ctx, appID, alice)
	apiErr := apiError(t, err)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "NotAppManager", apiErr.Reason)

	_, err = h.authed().SetVersionEnabled(ctx, appID, 1, false)
	require.True(t, delegatesdk.IsForbidden(err), "got %v", err)
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.authed()

	t.Run("validation", func(t *testing.T) {
		_, err := c.RegisterApp(ctx, delegatesdk.RegisterAppRequest{Name: "X", Description: "a tool for testing delegation"})
		apiErr := apiError(t, err)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, delegatesdk.ErrorCodeValidation, apiErr.Code)
	})

	t.Run("missing application", func(t *testing.T) {
		_, err := h.client.GetApp(ctx, 42)
		require.True(t, delegatesdk.IsNotFound(err), "got %v", err)
	})

	t.Run("bad path id", func(t *testing.T) {
		resp, err := http.Get(h.server.URL + "/v1/apps/zero")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad manager address", func(t *testing.T) {
		_, err := h.client.ListApps(ctx, "0x1234")
		require.True(t, delegatesdk.IsValidation(err), "got %v", err)
	})

	t.Run("removing an unknown delegatee", func(t *testing.T) {
		reg, err := c.RegisterApp(ctx, delegatesdk.RegisterAppRequest{Name: "Tool Y", Description: "a tool for testing delegation"})
		require.NoError(t, err)

		_, err = c.RemoveDelegatee(ctx, reg.AppID, alice)
		apiErr := apiError(t, err)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
		require.Equal(t, simledger.ReasonDelegateeNotRegistered, apiErr.Reason)
	})
}

func TestNoApplicationsIsEmptyList(t *testing.T) {
	h := newHarness(t)

	list, err := h.client.ListApps(context.Background(), alice)
	require.NoError(t, err)
	require.NotNil(t, list.Apps)
	require.Empty(t, list.Apps)
}

func TestUnknownSessionsLeaveNoState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := range 3 {
		id := fmt.Sprintf("unknown-%d", i)
		_, err := h.client.GetCredential(ctx, id)
		require.True(t, delegatesdk.IsNotFound(err), "got %v", err)
		require.NoError(t, h.client.ClearCredential(ctx, id))
	}
	require.Zero(t, h.sessions.Held())
}

func TestSessionCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.client.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.SessionID)

	_, err = h.client.GetCredential(ctx, sess.SessionID)
	require.True(t, delegatesdk.IsNotFound(err), "got %v", err)

	issued, err := h.client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{
		Payload:  map[string]any{"role": "viewer"},
		Audience: []string{"dashboard"},
	})
	require.NoError(t, err)
	require.Equal(t, h.identity, issued.Issuer)
	require.Equal(t, []string{"dashboard"}, issued.Audience)
	require.Equal(t, time.Duration(credential.DefaultExpiresInMinutes)*time.Minute, issued.ExpiresAt.Sub(issued.IssuedAt))

	stored, err := h.client.GetCredential(ctx, sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, issued.Credential, stored.Credential)

	ok, err := h.client.VerifySessionCredential(ctx, sess.SessionID)
	require.NoError(t, err)
	require.True(t, ok.Valid)

	ok, err = h.client.VerifyCredential(ctx, delegatesdk.VerifyRequest{Credential: issued.Credential})
	require.NoError(t, err)
	require.True(t, ok.Valid)

	signer, err := h.client.GetSigner(ctx)
	require.NoError(t, err)
	require.Equal(t, h.identity, signer.Identity)
	ok, err = h.client.VerifyCredential(ctx, delegatesdk.VerifyRequest{Credential: issued.Credential, PublicKey: signer.PublicKey})
	require.NoError(t, err)
	require.True(t, ok.Valid)

	ok, err = h.client.VerifyCredential(ctx, delegatesdk.VerifyRequest{Credential: issued.Credential + "x"})
	require.NoError(t, err)
	require.False(t, ok.Valid)

	_, err = h.client.VerifyCredential(ctx, delegatesdk.VerifyRequest{Credential: issued.Credential, PublicKey: "0x1234"})
	require.True(t, delegatesdk.IsValidation(err), "got %v", err)

	require.NoError(t, h.client.ClearCredential(ctx, sess.SessionID))
	_, err = h.client.GetCredential(ctx, sess.SessionID)
	require.True(t, delegatesdk.IsNotFound(err), "got %v", err)

	_, err = h.client.VerifySessionCredential(ctx, sess.SessionID)
	require.True(t, delegatesdk.IsNotFound(err), "got %v", err)

	require.NoError(t, h.client.EndSession(ctx, sess.SessionID))
}

func TestIssueRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.client.CreateSession(ctx)
	require.NoError(t, err)

	_, err = h.client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{Audience: []string{audience}})
	require.True(t, delegatesdk.IsForbidden(err), "got %v", err)

	_, err = h.client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{
		Audience:         []string{"dashboard"},
		ExpiresInMinutes: -5,
	})
	require.True(t, delegatesdk.IsValidation(err), "got %v", err)

	_, err = h.client.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{})
	require.True(t, delegatesdk.IsValidation(err), "got %v", err)

	_, err = h.client.IssueCredential(ctx, "bad:id", delegatesdk.IssueCredentialRequest{Audience: []string{"dashboard"}})
	require.True(t, delegatesdk.IsValidation(err), "got %v", err)
}

func TestConsentURLs(t *testing.T) {
	h := newHarness(t)

	urls, err := h.client.GetConsentURLs(context.Background(), url.Values{"app_id": {"7"}})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000/signin?app_id=7", urls.SignInURL)
	require.Equal(t, "http://localhost:3000/delegate?app_id=7", urls.DelegateURL)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	live, err := h.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := h.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)

	_, err = h.client.ListApps(ctx, alice)
	require.NoError(t, err)

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "delegate_ledger_reads_total")
}
