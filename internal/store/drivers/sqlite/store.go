package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/delegate/internal/store"
	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repos run unchanged
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
	now func() time.Time
}

// NewStore opens the database at dsn. Foreign keys, a busy timeout and WAL
// are enabled on every pooled connection, and transactions take the write
// lock up front so concurrent writers queue instead of failing.
func NewStore(dsn string) (*Store, error) {
	dsn = withDefaults(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if isMemory(dsn) {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn, now: time.Now}, nil
}

func withDefaults(dsn string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
	}
	if !isMemory(dsn) {
		params = append(params, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.now), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Apps() store.Apps         { return &appsRepo{db: s.db, now: s.now} }
func (s *Store) Versions() store.Versions { return &versionsRepo{db: s.db} }
func (s *Store) Txs() store.Txs           { return &txsRepo{db: s.db} }
func (s *Store) KV() store.KV             { return &kvRepo{db: s.db, now: s.now} }
func (s *Store) Metadata() store.Metadata { return &metadataRepo{db: s.db, now: s.now} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// isUniqueViolation matches sqlite's constraint error text; the driver does
// not export typed constraint errors through database/sql.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
