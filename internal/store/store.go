package store

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. It holds the simulated ledger
// state, the session key-value table and off-chain application metadata.
// Sub-repositories are exposed as methods so a Tx-scoped Store cannot start a
// nested transaction by accident.
type Store interface {
	Apps() Apps
	Versions() Versions
	Txs() Txs
	KV() KV
	Metadata() Metadata

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Apps interface {
	// CreateApp inserts an application with its redirect URIs and delegatees
	// and returns the assigned id. AppID on the record is ignored.
	CreateApp(ctx context.Context, app domain.AppRecord) (uint64, error)

	// GetApp returns the application with delegatees and redirect URIs.
	GetApp(ctx context.Context, id uint64) (domain.AppRecord, error)

	// ListAppIDsByManager returns ids in registration order.
	ListAppIDsByManager(ctx context.Context, manager domain.Address) ([]uint64, error)

	SetLatestVersion(ctx context.Context, id, version uint64) error

	// AddDelegatee returns ErrAlreadyExists when addr is already a delegatee.
	AddDelegatee(ctx context.Context, id uint64, addr domain.Address) error

	// RemoveDelegatee returns ErrNotFound when addr is not a delegatee.
	RemoveDelegatee(ctx context.Context, id uint64, addr domain.Address) error
}

type Versions interface {
	CreateVersion(ctx context.Context, appID uint64, v domain.VersionRecord) error
	GetVersion(ctx context.Context, appID, version uint64) (domain.VersionRecord, error)

	// ListVersions returns every version of an app, oldest first.
	ListVersions(ctx context.Context, appID uint64) ([]domain.VersionRecord, error)

	SetEnabled(ctx context.Context, appID, version uint64, enabled bool) error

	// AddAgent permits an agent key on a version. Adding twice is a no-op.
	AddAgent(ctx context.Context, appID, version uint64, tokenID *big.Int) error
}

// TxRecord is a mined simulated-ledger transaction.
type TxRecord struct {
	Hash    string
	Block   uint64
	From    domain.Address
	Nonce   uint64
	Method  string
	Status  TxStatus
	Reason  string // revert reason, empty on success
	MinedAt time.Time
}

type TxStatus string

const (
	TxSucceeded TxStatus = "succeeded"
	TxReverted  TxStatus = "reverted"
)

type Txs interface {
	RecordTx(ctx context.Context, tx TxRecord) error
	GetTx(ctx context.Context, hash string) (TxRecord, error)

	// NextNonce is the number of transactions already mined for from.
	NextNonce(ctx context.Context, from domain.Address) (uint64, error)

	// LatestBlock returns 0 on an empty chain.
	LatestBlock(ctx context.Context) (uint64, error)
}

// KV is a string key-value table with optional expiry. A zero ttl never
// expires.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error

	// DeleteExpired purges entries whose expiry has passed.
	DeleteExpired(ctx context.Context) (int64, error)
}

type Metadata interface {
	// GetMetadata returns ErrNotFound when nothing is recorded for the app.
	GetMetadata(ctx context.Context, appID uint64) (domain.Metadata, error)
	PutMetadata(ctx context.Context, appID uint64, m domain.Metadata) error
}
