package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/kv/memkv"
	"github.com/aussiebroadwan/delegate/internal/kv/rediskv"
	"github.com/aussiebroadwan/delegate/internal/ledger/simledger"
	"github.com/aussiebroadwan/delegate/internal/metrics"
	"github.com/aussiebroadwan/delegate/internal/registry"
	"github.com/aussiebroadwan/delegate/internal/store"
	"github.com/aussiebroadwan/delegate/internal/store/drivers/sqlite"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
)

// SessionKV is a credential KV the housekeeper can purge.
type SessionKV interface {
	credential.KV
	Purger
}

// Core is everything below the transport: the ledger and its database, the
// registry client, the session backend and the delegated signer. Both the
// server and the CLI run on it.
type Core struct {
	DB       store.Store
	Ledger   *simledger.Ledger
	Registry *registry.Client
	Apps     *registry.Builder
	Sessions *credential.Sessions
	KV       SessionKV
	Signer   pkp.Signer
	Identity string
	Metrics  *metrics.Metrics

	closers []func() error
}

// OpenCore opens the database, applies migrations, starts the ledger and
// resolves the signer. Close releases everything in reverse order.
func OpenCore(ctx context.Context, cfg Config, logger *slog.Logger) (*Core, error) {
	c := &Core{Metrics: metrics.New()}

	db, err := sqlite.NewStore(cfg.LedgerDatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if err := db.ApplyMigrations(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "file", cfg.LedgerDatabaseFile)

	c.Ledger = simledger.New(db, simledger.Config{BlockTime: cfg.LedgerBlockTime, Logger: logger})
	if err := c.Ledger.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to start ledger: %w", err)
	}
	c.closers = append(c.closers, c.Ledger.Close)

	c.Signer, err = InitSigner(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}
	c.Identity, err = pkp.Identity(c.Signer)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to derive signer identity: %w", err)
	}

	c.Registry = registry.NewClient(c.Ledger, registry.ClientOptions{
		Sender:    domain.Address(c.Identity),
		TxTimeout: cfg.LedgerTxTimeout,
		Logger:    logger,
		Metrics:   c.Metrics,
		Locks:     registry.NewLocks(),
	})
	c.Apps = &registry.Builder{
		Registry: c.Registry,
		Metadata: registry.StoreMetadata{Repo: db.Metadata()},
	}

	c.KV, err = openSessionKV(ctx, cfg, db)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Sessions = credential.NewSessions(c.KV)
	logger.Info("session backend ready", "backend", cfg.SessionBackend)

	return c, nil
}

func openSessionKV(ctx context.Context, cfg Config, db store.Store) (SessionKV, error) {
	switch cfg.SessionBackend {
	case SessionBackendSQLite:
		return db.KV(), nil
	case SessionBackendMemory:
		return memkv.New(), nil
	case SessionBackendRedis:
		kv, err := rediskv.Open(ctx, cfg.RedisAddr, cfg.SessionKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session backend: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// Close stops the ledger and closes the session backend and database.
func (c *Core) Close() error {
	if closer, ok := c.KV.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
