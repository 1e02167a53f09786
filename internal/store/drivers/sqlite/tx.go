package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/delegate/internal/store"
)

type txStore struct {
	tx  *sql.Tx
	now func() time.Time
}

func newTx(tx *sql.Tx, now func() time.Time) *txStore {
	return &txStore{tx: tx, now: now}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op; the connection is held by the transaction already.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Apps() store.Apps         { return &appsRepo{db: t.tx, now: t.now} }
func (t *txStore) Versions() store.Versions { return &versionsRepo{db: t.tx} }
func (t *txStore) Txs() store.Txs           { return &txsRepo{db: t.tx} }
func (t *txStore) KV() store.KV             { return &kvRepo{db: t.tx, now: t.now} }
func (t *txStore) Metadata() store.Metadata { return &metadataRepo{db: t.tx, now: t.now} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
