package registry_test

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/internal/ledger/simledger"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/internal/store"
	"github.com/aussiebroadwan/delegate/internal/store/drivers/sqlite"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	manager  = domain.Address("0x1111111111111111111111111111111111111111")
	stranger = domain.Address("0x9999999999999999999999999999999999999999")
	alice    = "0x2222222222222222222222222222222222222222"
	nobody   = "0x3333333333333333333333333333333333333333"
)

type fixture struct {
	client *registry.Client
	store  store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())

	l := simledger.New(st, simledger.Config{Logger: slogx.Discard()})
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() {
		_ = l.Close()
		_ = st.Close()
	})

	c := registry.NewClient(l, registry.ClientOptions{
		Sender:    manager,
		TxTimeout: 5 * time.Second,
		Logger:    slogx.Discard(),
	})
	return fixture{client: c, store: st}
}

func registerToolX(t *testing.T, c *registry.Client) uint64 {
	t.Helper()
	id, receipt, err := c.RegisterApp(context.Background(), registry.RegisterAppParams{
		Name:         "Tool X",
		Description:  "a tool for testing delegation",
		RedirectURIs: []string{"https://app.example.com/cb"},
		Delegatees:   []string{alice},
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.NotEmpty(t, receipt.TxHash)
	return id
}

func TestApplicationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	builder := &registry.Builder{Registry: f.client}
	dm := registry.NewDelegationManager(f.client)

	id := registerToolX(t, f.client)
	require.EqualValues(t, 1, id)

	app, err := builder.BuildApplication(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Tool X", app.Name)
	require.Equal(t, manager, app.Manager)
	require.EqualValues(t, 1, app.CurrentVersion)
	require.Len(t, app.Versions, 1)
	require.Equal(t, []domain.Address{alice}, app.Delegatees)
	require.Equal(t, domain.Metadata{}, app.Metadata)

	v, _, err := dm.RegisterNextVersion(ctx, id, 2,
		[]string{"QmTool"},
		[][]string{{"QmPolicy"}},
		[][][]string{{{"maxAmount", "token"}}},
	)
	require.NoError(t, err)
	require.EqualValues(t, 2, v)

	_, err = dm.ToggleVersion(ctx, id, 2, true)
	require.NoError(t, err)

	apps, err := builder.BuildApplicationsForManager(ctx, string(manager))
	require.NoError(t, err)
	require.Len(t, apps, 1)
	got := apps[0]
	require.EqualValues(t, 2, got.CurrentVersion)
	require.Len(t, got.Versions, 2)
	require.True(t, got.IsEnabled)
	require.Equal(t, []domain.Tool{{
		IPFSCID:  "QmTool",
		Policies: []domain.Policy{{IPFSCID: "QmPolicy", ParameterNames: []string{"maxAmount", "token"}}},
	}}, got.Versions[1].Tools)

	_, _, err = dm.RegisterNextVersion(ctx, id, 4, []string{}, [][]string{}, [][][]string{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestToggleCurrentVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dm := registry.NewDelegationManager(f.client)
	id := registerToolX(t, f.client)

	enabled, _, err := dm.ToggleCurrentVersion(ctx, id)
	require.NoError(t, err)
	require.False(t, enabled)

	_, v, err := f.client.GetAppVersion(ctx, id, 1)
	require.NoError(t, err)
	require.False(t, v.Enabled)

	enabled, _, err = dm.ToggleCurrentVersion(ctx, id)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestToggleVersionIsRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dm := registry.NewDelegationManager(f.client)
	id := registerToolX(t, f.client)

	for range 2 {
		r, err := dm.ToggleVersion(ctx, id, 1, true)
		require.NoError(t, err)
		require.NotNil(t, r)
	}
}

func TestDelegatees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dm := registry.NewDelegationManager(f.client)
	id := registerToolX(t, f.client)

	_, err := dm.AddDelegatee(ctx, id, nobody)
	require.NoError(t, err)

	_, err = dm.AddDelegatee(ctx, id, nobody)
	var lerr *domain.LedgerError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, simledger.ReasonDelegateeAlreadyRegistered, lerr.Reason)
	require.NotErrorIs(t, err, domain.ErrAuthorization)

	_, err = dm.RemoveDelegatee(ctx, id, alice)
	require.NoError(t, err)

	app, err := f.client.GetAppByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{nobody}, app.Delegatees)

	_, err = dm.RemoveDelegatee(ctx, id, alice)
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, simledger.ReasonDelegateeNotRegistered, lerr.Reason)
}

func TestNonManagerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := registerToolX(t, f.client)

	dm := registry.NewDelegationManager(f.client.WithSender(stranger))

	_, err := dm.AddDelegatee(ctx, id, nobody)
	require.ErrorIs(t, err, domain.ErrAuthorization)
	require.ErrorIs(t, err, domain.ErrLedger)

	_, err = dm.RemoveDelegatee(ctx, id, alice)
	require.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = dm.ToggleVersion(ctx, id, 1, false)
	require.ErrorIs(t, err, domain.ErrAuthorization)

	_, _, err = dm.RegisterNextVersion(ctx, id, 2, []string{}, [][]string{}, [][][]string{})
	require.ErrorIs(t, err, domain.ErrAuthorization)
}

func TestValidationHappensBeforeTheLedger(t *testing.T) {
	c := registry.NewClient(&countingContract{}, registry.ClientOptions{Sender: manager, Logger: slogx.Discard()})
	ctx := context.Background()

	_, _, err := c.RegisterApp(ctx, registry.RegisterAppParams{Name: "X", Description: "long enough description"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = c.RegisterApp(ctx, registry.RegisterAppParams{
		Name:        "Tool X",
		Description: "long enough description",
		Delegatees:  []string{alice, alice},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.AddDelegatee(ctx, 1, "not-an-address")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.EnableAppVersion(ctx, 0, 1, true)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = c.RegisterNextAppVersion(ctx, 1, []string{"QmA"}, [][]string{}, [][][]string{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.GetAppsByManager(ctx, "0x12")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = registry.NewClient(&countingContract{}, registry.ClientOptions{}).AddDelegatee(ctx, 1, alice)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestNoApplications(t *testing.T) {
	f := newFixture(t)
	builder := &registry.Builder{Registry: f.client}

	apps, err := builder.BuildApplicationsForManager(context.Background(), nobody)
	require.NoError(t, err)
	require.NotNil(t, apps)
	require.Empty(t, apps)
}

func TestMissingApplication(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.GetAppByID(context.Background(), 42)
	var lerr *domain.LedgerError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, simledger.ReasonAppNotRegistered, lerr.Reason)
}

func TestStoreMetadataIsJoined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := registerToolX(t, f.client)

	builder := &registry.Builder{
		Registry: f.client,
		Metadata: registry.StoreMetadata{Repo: f.store.Metadata()},
	}

	app, err := builder.BuildApplication(ctx, id)
	require.NoError(t, err)
	require.Empty(t, app.Metadata.ContactEmail)

	require.NoError(t, f.store.Metadata().PutMetadata(ctx, id, domain.Metadata{ContactEmail: "ops@example.com"}))
	app, err = builder.BuildApplication(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", app.Metadata.ContactEmail)
}

func TestBuildApplicationIsPure(t *testing.T) {
	app := domain.AppRecord{AppID: 7, Name: "Tool X", Manager: manager, LatestVersion: 0}

	view := registry.BuildApplication(app, nil)
	require.False(t, view.IsEnabled)
	require.Empty(t, view.Versions)
	require.NotNil(t, view.Delegatees)

	view = registry.BuildApplication(app, []domain.VersionRecord{
		{Version: 1, Enabled: true},
		{Version: 2, Enabled: false, DelegatedAgentPKPs: []*big.Int{big.NewInt(9)}},
	})
	require.False(t, view.IsEnabled)
	require.Equal(t, []*big.Int{big.NewInt(9)}, view.Versions[1].DelegatedAgentPKPs)
	require.NotNil(t, view.Versions[0].DelegatedAgentPKPs)
}

func TestIsAuthorizationReason(t *testing.T) {
	for _, r := range []string{"NotAppManager", "caller is not manager", "Unauthorized"} {
		require.True(t, registry.IsAuthorizationReason(r), r)
	}
	for _, r := range []string{"", "AppNotRegistered", "DelegateeAlreadyRegistered"} {
		require.False(t, registry.IsAuthorizationReason(r), r)
	}
}

// countingContract records how many writes per sender overlap.
type countingContract struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32

	out []any
	err error
}

func (c *countingContract) Transact(ctx context.Context, from domain.Address, method string, args ...any) (ledger.PendingTx, error) {
	n := c.inFlight.Add(1)
	for {
		m := c.maxInFlight.Load()
		if n <= m || c.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	c.calls.Add(1)
	return &slowTx{c: c, final: time.Now().Add(20 * time.Millisecond)}, nil
}

func (c *countingContract) Query(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.out, c.err
}

// slowTx becomes final at a fixed time no matter how often it is awaited.
type slowTx struct {
	c     *countingContract
	final time.Time
	once  sync.Once
}

func (t *slowTx) Hash() string { return "0xabc" }

func (t *slowTx) Wait(ctx context.Context) (*ledger.Receipt, error) {
	select {
	case <-time.After(time.Until(t.final)):
		t.once.Do(func() { t.c.inFlight.Add(-1) })
		return &ledger.Receipt{TxHash: "0xabc", Block: 1}, nil
	case <-ctx.Done():
		return nil, errors.Join(ledger.ErrWaitAborted, ctx.Err())
	}
}

func TestWritesSerializePerSender(t *testing.T) {
	cc := &countingContract{}
	locks := registry.NewLocks()
	a := registry.NewClient(cc, registry.ClientOptions{Sender: manager, Locks: locks, Logger: slogx.Discard()})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.EnableAppVersion(context.Background(), 1, 1, true)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 5, cc.calls.Load())
	require.EqualValues(t, 1, cc.maxInFlight.Load())
}

func TestWritesForDifferentSendersOverlap(t *testing.T) {
	cc := &countingContract{}
	locks := registry.NewLocks()
	a := registry.NewClient(cc, registry.ClientOptions{Sender: manager, Locks: locks, Logger: slogx.Discard()})
	b := a.WithSender(stranger)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, c := range []*registry.Client{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.EnableAppVersion(context.Background(), 1, 1, true)
			require.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 2, cc.calls.Load())
}

func TestAbortedWaitHoldsLockUntilFinal(t *testing.T) {
	cc := &countingContract{}
	locks := registry.NewLocks()
	impatient := registry.NewClient(cc, registry.ClientOptions{Sender: manager, Locks: locks, TxTimeout: time.Millisecond, Logger: slogx.Discard()})

	_, err := impatient.EnableAppVersion(context.Background(), 1, 1, true)
	require.ErrorIs(t, err, domain.ErrLedger)
	require.ErrorIs(t, err, ledger.ErrWaitAborted)
	require.Equal(t, 1, locks.Waiting(manager), "pending tx keeps the sender busy")

	patient := registry.NewClient(cc, registry.ClientOptions{Sender: manager, Locks: locks, Logger: slogx.Discard()})
	_, err = patient.EnableAppVersion(context.Background(), 1, 1, true)
	require.NoError(t, err)

	require.EqualValues(t, 2, cc.calls.Load())
	require.EqualValues(t, 1, cc.maxInFlight.Load())
	require.Eventually(t, func() bool { return locks.Waiting(manager) == 0 }, time.Second, 5*time.Millisecond)
}

func TestMalformedLedgerOutput(t *testing.T) {
	cases := map[string][]any{
		"no outputs":      {},
		"app not a tuple": {"nope"},
		"short app tuple": {[]any{big.NewInt(1), "n"}},
		"bad manager": {[]any{
			big.NewInt(1), "Tool X", "desc", "not-an-address", big.NewInt(1), []any{}, []any{},
		}},
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			c := registry.NewClient(&countingContract{out: out}, registry.ClientOptions{Logger: slogx.Discard()})
			_, err := c.GetAppByID(context.Background(), 1)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Field, "ledger.")
		})
	}
}

func TestPermitAndFetchDelegatedAgents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := registerToolX(t, f.client)

	agent := f.client.WithSender(stranger)
	_, err := agent.PermitAppVersion(ctx, id, 1, big.NewInt(77))
	require.NoError(t, err)

	pkps, err := f.client.FetchDelegatedAgentPKPs(ctx, id, 1)
	require.NoError(t, err)
	require.Equal(t, []*big.Int{big.NewInt(77)}, pkps)

	_, err = agent.PermitAppVersion(ctx, id, 1, big.NewInt(0))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = registry.NewDelegationManager(f.client).ToggleVersion(ctx, id, 1, false)
	require.NoError(t, err)
	_, err = agent.PermitAppVersion(ctx, id, 1, big.NewInt(78))
	var lerr *domain.LedgerError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, simledger.ReasonAppVersionNotEnabled, lerr.Reason)
}
