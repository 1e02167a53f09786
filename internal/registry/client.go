package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
)

// DefaultTxTimeout bounds how long a write waits for finality.
const DefaultTxTimeout = 2 * time.Minute

// Metrics receives registry call outcomes.
type Metrics interface {
	ObserveWrite(method, outcome string, d time.Duration)
	ObserveRead(method, outcome string, d time.Duration)
}

type noMetrics struct{}

func (noMetrics) ObserveWrite(string, string, time.Duration) {}
func (noMetrics) ObserveRead(string, string, time.Duration)  {}

type ClientOptions struct {
	// Sender is the address writes are submitted from.
	Sender domain.Address

	// TxTimeout bounds the wait for finality. Defaults to DefaultTxTimeout.
	TxTimeout time.Duration

	Logger  *slog.Logger
	Metrics Metrics

	// Locks is shared by every client that may write for the same sender.
	Locks *Locks
}

// Client is the typed façade over the registry contract. Writes block until
// the transaction is final; reads are lock-free.
type Client struct {
	contract  ledger.Contract
	sender    domain.Address
	txTimeout time.Duration
	log       *slog.Logger
	metrics   Metrics
	locks     *Locks
}

func NewClient(contract ledger.Contract, opts ClientOptions) *Client {
	c := &Client{
		contract:  contract,
		sender:    opts.Sender,
		txTimeout: opts.TxTimeout,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		locks:     opts.Locks,
	}
	if c.txTimeout <= 0 {
		c.txTimeout = DefaultTxTimeout
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.metrics == nil {
		c.metrics = noMetrics{}
	}
	if c.locks == nil {
		c.locks = NewLocks()
	}
	return c
}

// WithSender returns a client writing as sender. It shares the lock table,
// so writes per sender stay serialized across both clients.
func (c *Client) WithSender(sender domain.Address) *Client {
	cp := *c
	cp.sender = sender
	return &cp
}

func (c *Client) Sender() domain.Address { return c.sender }

type RegisterAppParams struct {
	Name         string
	Description  string
	RedirectURIs []string
	Delegatees   []string
}

// RegisterApp registers a new application managed by the sender. The ledger
// creates version 1 with it.
func (c *Client) RegisterApp(ctx context.Context, p RegisterAppParams) (uint64, *ledger.Receipt, error) {
	name, desc := strings.TrimSpace(p.Name), strings.TrimSpace(p.Description)
	if err := domain.ValidateName(name); err != nil {
		return 0, nil, err
	}
	if err := domain.ValidateDescription(desc); err != nil {
		return 0, nil, err
	}
	if err := domain.ValidateRedirectURIs(p.RedirectURIs); err != nil {
		return 0, nil, err
	}
	delegatees, err := domain.NormalizeDelegatees(p.Delegatees)
	if err != nil {
		return 0, nil, err
	}

	receipt, err := c.write(ctx, ledger.MethodRegisterApp,
		name, desc, nonNil(p.RedirectURIs), addressStrings(delegatees))
	if err != nil {
		return 0, nil, err
	}
	appID, err := eventUint(receipt, ledger.EventAppRegistered, "appId")
	if err != nil {
		return 0, receipt, err
	}
	return appID, receipt, nil
}

// RegisterNextAppVersion appends a version with the given tools. The three
// arrays hold one entry per tool.
func (c *Client) RegisterNextAppVersion(
	ctx context.Context,
	appID uint64,
	toolIpfsCids []string,
	toolPolicies [][]string,
	toolPolicyParameterNames [][][]string,
) (uint64, *ledger.Receipt, error) {
	if err := validAppID(appID); err != nil {
		return 0, nil, err
	}
	if err := domain.ValidateToolArrays(toolIpfsCids, toolPolicies, toolPolicyParameterNames); err != nil {
		return 0, nil, err
	}

	receipt, err := c.write(ctx, ledger.MethodRegisterNextAppVersion,
		bigU(appID), nonNil(toolIpfsCids), toolPolicies, toolPolicyParameterNames)
	if err != nil {
		return 0, nil, err
	}
	version, err := eventUint(receipt, ledger.EventAppVersionRegistered, "version")
	if err != nil {
		return 0, receipt, err
	}
	return version, receipt, nil
}

// AddDelegatee does not check membership first; the ledger decides.
func (c *Client) AddDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error) {
	addr, err := delegateeArg(appID, delegatee)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, ledger.MethodAddDelegatee, bigU(appID), string(addr))
}

// RemoveDelegatee does not check membership first; the ledger decides.
func (c *Client) RemoveDelegatee(ctx context.Context, appID uint64, delegatee string) (*ledger.Receipt, error) {
	addr, err := delegateeArg(appID, delegatee)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, ledger.MethodRemoveDelegatee, bigU(appID), string(addr))
}

func (c *Client) EnableAppVersion(ctx context.Context, appID, version uint64, enabled bool) (*ledger.Receipt, error) {
	if err := validAppID(appID); err != nil {
		return nil, err
	}
	if err := validVersion(version); err != nil {
		return nil, err
	}
	return c.write(ctx, ledger.MethodEnableAppVersion, bigU(appID), bigU(version), enabled)
}

// PermitAppVersion records that the agent key pkpTokenID accepted a version.
// The sender acts as the agent owner, not the manager.
func (c *Client) PermitAppVersion(ctx context.Context, appID, version uint64, pkpTokenID *big.Int) (*ledger.Receipt, error) {
	if err := validAppID(appID); err != nil {
		return nil, err
	}
	if err := validVersion(version); err != nil {
		return nil, err
	}
	if pkpTokenID == nil || pkpTokenID.Sign() <= 0 {
		return nil, domain.Invalid("pkp_token_id", "must be positive")
	}
	return c.write(ctx, ledger.MethodPermitAppVersion, bigU(appID), bigU(version), new(big.Int).Set(pkpTokenID))
}

// write submits one transaction under the sender's lock and waits for
// finality. The lock is held until the transaction is final, even when the
// caller stops waiting first.
func (c *Client) write(ctx context.Context, method string, args ...any) (*ledger.Receipt, error) {
	if c.sender.IsZero() {
		return nil, domain.Invalid("sender", "no sender address configured")
	}

	start := time.Now()
	log := c.log.With("method", method, "sender", c.sender)

	release, err := c.locks.Acquire(ctx, c.sender)
	if err != nil {
		c.metrics.ObserveWrite(method, "aborted", time.Since(start))
		return nil, fmt.Errorf("registry: %s: waiting for sender lock: %w", method, err)
	}
	held := true
	defer func() {
		if held {
			release()
		}
	}()

	tx, err := c.contract.Transact(ctx, c.sender, method, args...)
	if err != nil {
		c.metrics.ObserveWrite(method, "error", time.Since(start))
		log.Error("submit failed", "err", err)
		return nil, &domain.LedgerError{Op: method, Err: err}
	}
	log = log.With("tx", tx.Hash())
	log.Debug("tx submitted")

	waitCtx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	receipt, err := tx.Wait(waitCtx)
	if err != nil {
		lerr := &domain.LedgerError{Op: method, TxHash: tx.Hash(), Err: err}

		var rv *ledger.RevertError
		switch {
		case errors.As(err, &rv):
			lerr.Reason = rv.Reason
			c.metrics.ObserveWrite(method, "reverted", time.Since(start))
			log.Warn("tx reverted", "reason", rv.Reason)
		case errors.Is(err, ledger.ErrWaitAborted):
			c.metrics.ObserveWrite(method, "aborted", time.Since(start))
			log.Warn("stopped waiting for tx; it stays pending", "err", err)

			// The tx can still be mined, so the sender stays busy until it is.
			held = false
			go func() {
				defer release()
				if _, err := tx.Wait(context.WithoutCancel(ctx)); err != nil {
					log.Debug("abandoned tx did not commit", "err", err)
				}
			}()
		default:
			c.metrics.ObserveWrite(method, "error", time.Since(start))
			log.Error("tx wait failed", "err", err)
		}
		return nil, lerr
	}

	c.metrics.ObserveWrite(method, "ok", time.Since(start))
	log.Info("tx final", "block", receipt.Block, "duration_ms", time.Since(start).Milliseconds())
	return receipt, nil
}

// GetAppsByManager returns every application managed by manager with all of
// its versions. An address with no applications yields an empty slice.
func (c *Client) GetAppsByManager(ctx context.Context, manager string) ([]domain.AppWithVersions, error) {
	addr, err := domain.ParseAddress(manager)
	if err != nil {
		return nil, err
	}
	out, err := c.read(ctx, ledger.MethodGetAppsByManager, string(addr))
	if err != nil {
		return nil, err
	}
	return decodeAppsWithVersions(out)
}

func (c *Client) GetAppByID(ctx context.Context, appID uint64) (domain.AppRecord, error) {
	if err := validAppID(appID); err != nil {
		return domain.AppRecord{}, err
	}
	out, err := c.read(ctx, ledger.MethodGetAppByID, bigU(appID))
	if err != nil {
		return domain.AppRecord{}, err
	}
	if len(out) != 1 {
		return domain.AppRecord{}, shapeErr("app", "want 1 output, got %d", len(out))
	}
	return decodeApp(out[0], "app")
}

func (c *Client) GetAppVersion(ctx context.Context, appID, version uint64) (domain.AppRecord, domain.VersionRecord, error) {
	if err := validAppID(appID); err != nil {
		return domain.AppRecord{}, domain.VersionRecord{}, err
	}
	if err := validVersion(version); err != nil {
		return domain.AppRecord{}, domain.VersionRecord{}, err
	}

	out, err := c.read(ctx, ledger.MethodGetAppVersion, bigU(appID), bigU(version))
	if err != nil {
		return domain.AppRecord{}, domain.VersionRecord{}, err
	}
	if len(out) != 2 {
		return domain.AppRecord{}, domain.VersionRecord{}, shapeErr("appVersion", "want 2 outputs, got %d", len(out))
	}
	app, err := decodeApp(out[0], "app")
	if err != nil {
		return domain.AppRecord{}, domain.VersionRecord{}, err
	}
	v, err := decodeVersion(out[1], "version")
	if err != nil {
		return domain.AppRecord{}, domain.VersionRecord{}, err
	}
	return app, v, nil
}

// FetchDelegatedAgentPKPs lists the agent key token ids that permitted a version.
func (c *Client) FetchDelegatedAgentPKPs(ctx context.Context, appID, version uint64) ([]*big.Int, error) {
	_, v, err := c.GetAppVersion(ctx, appID, version)
	if err != nil {
		return nil, err
	}
	return v.DelegatedAgentPKPs, nil
}

func (c *Client) read(ctx context.Context, method string, args ...any) ([]any, error) {
	start := time.Now()
	out, err := c.contract.Query(ctx, method, args...)
	if err != nil {
		c.metrics.ObserveRead(method, "error", time.Since(start))

		var rv *ledger.RevertError
		if errors.As(err, &rv) {
			return nil, &domain.LedgerError{Op: method, Reason: rv.Reason, Err: err}
		}
		return nil, &domain.LedgerError{Op: method, Err: err}
	}
	c.metrics.ObserveRead(method, "ok", time.Since(start))
	return out, nil
}

func validAppID(id uint64) error {
	if id == 0 {
		return domain.Invalid("app_id", "must be positive")
	}
	return nil
}

func validVersion(v uint64) error {
	if v == 0 {
		return domain.Invalid("version", "must be positive")
	}
	return nil
}

func delegateeArg(appID uint64, delegatee string) (domain.Address, error) {
	if err := validAppID(appID); err != nil {
		return "", err
	}
	addr, err := domain.ParseAddress(delegatee)
	if err != nil {
		return "", err
	}
	if addr.IsZero() {
		return "", domain.Invalid("delegatee", "zero address")
	}
	return addr, nil
}

func bigU(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
