package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/store"
)

type txsRepo struct {
	db dbtx
}

const recordTx = `
INSERT INTO ledger_txs (hash, block, sender, nonce, method, status, reason, mined_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (r *txsRepo) RecordTx(ctx context.Context, tx store.TxRecord) error {
	_, err := r.db.ExecContext(ctx, recordTx,
		tx.Hash, tx.Block, string(tx.From), tx.Nonce, tx.Method, string(tx.Status), tx.Reason, tx.MinedAt.UnixMilli())
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

const getTx = `
SELECT hash, block, sender, nonce, method, status, reason, mined_at FROM ledger_txs WHERE hash = ?`

func (r *txsRepo) GetTx(ctx context.Context, hash string) (store.TxRecord, error) {
	var (
		tx      store.TxRecord
		from    string
		status  string
		minedAt int64
	)
	err := r.db.QueryRowContext(ctx, getTx, hash).
		Scan(&tx.Hash, &tx.Block, &from, &tx.Nonce, &tx.Method, &status, &tx.Reason, &minedAt)
	if err != nil {
		return store.TxRecord{}, mapNotFound(err)
	}
	tx.From = domain.Address(from)
	tx.Status = store.TxStatus(status)
	tx.MinedAt = time.UnixMilli(minedAt).UTC()
	return tx, nil
}

const countTxsBySender = `SELECT COUNT(*) FROM ledger_txs WHERE sender = ?`

func (r *txsRepo) NextNonce(ctx context.Context, from domain.Address) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx, countTxsBySender, string(from)).Scan(&n)
	return n, err
}

const latestBlock = `SELECT COALESCE(MAX(block), 0) FROM ledger_txs`

func (r *txsRepo) LatestBlock(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx, latestBlock).Scan(&n)
	return n, err
}
