// Package simledger is an in-process registry ledger backed by the sqlite
// store. Writes are queued and mined in blocks by a single goroutine; every
// transaction is applied atomically and either commits or reverts.
package simledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/ledger"
	"github.com/aussiebroadwan/delegate/internal/store"
	"golang.org/x/crypto/sha3"
)

var ErrClosed = errors.New("simledger: closed")

type Config struct {
	// BlockTime is the interval between blocks. Zero mines each submission
	// as soon as it arrives.
	BlockTime time.Duration

	Logger *slog.Logger
}

// Ledger implements ledger.Contract.
type Ledger struct {
	store     store.Store
	blockTime time.Duration
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	queue   []*pendingTx
	nonces  map[domain.Address]uint64
	height  uint64
	started bool
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

var _ ledger.Contract = (*Ledger)(nil)

// New creates a ledger over st. Migrations must already be applied. Call
// Start before submitting transactions and Close when done.
func New(st store.Store, cfg Config) *Ledger {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store:     st,
		blockTime: cfg.BlockTime,
		log:       log.With("component", "simledger"),
		now:       time.Now,
		nonces:    make(map[domain.Address]uint64),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start loads the chain height and launches the miner.
func (l *Ledger) Start(ctx context.Context) error {
	h, err := l.store.Txs().LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("simledger: load height: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("simledger: already started")
	}
	l.started = true
	l.height = h

	go l.mine()
	l.log.Info("ledger started", "height", h, "block_time", l.blockTime.String())
	return nil
}

// Close stops accepting transactions, mines whatever is queued and stops the
// miner.
func (l *Ledger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	started := l.started
	l.mu.Unlock()

	if !started {
		return nil
	}
	close(l.stop)
	<-l.done
	return nil
}

// Transact queues a write. The hash is known immediately; finality comes
// with the next block.
func (l *Ledger) Transact(ctx context.Context, from domain.Address, method string, args ...any) (ledger.PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := writeHandlers[method]; !ok {
		return nil, fmt.Errorf("simledger: unknown method %q", method)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || !l.started {
		return nil, ErrClosed
	}

	nonce, ok := l.nonces[from]
	if !ok {
		n, err := l.store.Txs().NextNonce(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("simledger: load nonce: %w", err)
		}
		nonce = n
	}
	l.nonces[from] = nonce + 1

	tx := &pendingTx{
		hash:   txHash(from, nonce, method, args),
		from:   from,
		nonce:  nonce,
		method: method,
		args:   args,
		done:   make(chan struct{}),
	}
	l.queue = append(l.queue, tx)

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return tx, nil
}

func (l *Ledger) mine() {
	defer close(l.done)

	var tick <-chan time.Time
	if l.blockTime > 0 {
		t := time.NewTicker(l.blockTime)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-l.stop:
			l.mineBlock()
			return
		case <-tick:
			l.mineBlock()
		case <-l.wake:
			if tick == nil {
				l.mineBlock()
			}
		}
	}
}

// mineBlock applies every queued transaction in one block.
func (l *Ledger) mineBlock() {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	if len(batch) == 0 {
		l.mu.Unlock()
		return
	}
	l.height++
	block := l.height
	l.mu.Unlock()

	// Mining must not be cut short by a caller giving up on its wait.
	ctx := context.Background()
	for _, tx := range batch {
		l.apply(ctx, block, tx)
	}
	l.log.Debug("block mined", "block", block, "txs", len(batch))
}

func (l *Ledger) apply(ctx context.Context, block uint64, tx *pendingTx) {
	rec := store.TxRecord{
		Hash:    tx.hash,
		Block:   block,
		From:    tx.from,
		Nonce:   tx.nonce,
		Method:  tx.method,
		Status:  store.TxSucceeded,
		MinedAt: l.now().UTC(),
	}

	var events []ledger.Event
	err := l.store.WithTx(ctx, func(st store.Tx) error {
		var err error
		events, err = writeHandlers[tx.method](ctx, st, tx.from, tx.args)
		if err != nil {
			return err
		}
		return st.Txs().RecordTx(ctx, rec)
	})

	var rv *revert
	switch {
	case err == nil:
		l.log.Info("tx mined", "tx", tx.hash, "block", block, "method", tx.method, "from", tx.from)
		tx.finish(&ledger.Receipt{TxHash: tx.hash, Block: block, Events: events}, nil)
		return
	case errors.As(err, &rv):
		rec.Reason = rv.reason
	default:
		l.log.Error("tx failed", "tx", tx.hash, "method", tx.method, "err", err)
		rec.Reason = "InternalError"
	}

	rec.Status = store.TxReverted
	if recErr := l.store.Txs().RecordTx(ctx, rec); recErr != nil {
		l.log.Error("record reverted tx", "tx", tx.hash, "err", recErr)
	}
	l.log.Info("tx reverted", "tx", tx.hash, "block", block, "method", tx.method, "reason", rec.Reason)
	tx.finish(nil, &ledger.RevertError{TxHash: tx.hash, Reason: rec.Reason})
}

type pendingTx struct {
	hash   string
	from   domain.Address
	nonce  uint64
	method string
	args   []any

	done    chan struct{}
	receipt *ledger.Receipt
	err     error
}

func (t *pendingTx) Hash() string { return t.hash }

func (t *pendingTx) Wait(ctx context.Context) (*ledger.Receipt, error) {
	select {
	case <-t.done:
		return t.receipt, t.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: tx %s: %w", ledger.ErrWaitAborted, t.hash, ctx.Err())
	}
}

func (t *pendingTx) finish(r *ledger.Receipt, err error) {
	t.receipt, t.err = r, err
	close(t.done)
}

// txHash is Keccak-256 over sender, nonce, method and JSON-encoded args.
func txHash(from domain.Address, nonce uint64, method string, args []any) string {
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte(fmt.Sprint(args))
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(from))
	h.Write([]byte(strconv.FormatUint(nonce, 10)))
	h.Write([]byte(method))
	h.Write(encoded)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
