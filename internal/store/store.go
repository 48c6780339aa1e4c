// Package store owns the process-wide database connection pool and the
// transactional primitives the config reconcile loop and the dispatcher
// build on top of.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyInitialized is returned by Init when the pool singleton has
// already been set up; re-initializing it is a programmer error, not a
// condition to silently ignore.
var ErrAlreadyInitialized = errors.New("store: connection pool already initialized")

// ErrNotInitialized is returned by AcquireConn/BeginTx when Init has not
// run yet.
var ErrNotInitialized = errors.New("store: connection pool not initialized")

// Querier is the common subset of *pgxpool.Pool and pgx.Tx that the
// repository layer depends on. Repositories are handed a Querier rather
// than a concrete pool or transaction so the same query code runs both
// standalone (request handling) and inside a reconcile transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	poolMu sync.Mutex
	pool   *pgxpool.Pool
)

// Init establishes the process-wide connection pool. Calling it a second
// time is an error rather than a silent overwrite, matching the
// singleton discipline the design calls for.
func Init(ctx context.Context, databaseURL string) error {
	poolMu.Lock()
	defer poolMu.Unlock()

	if pool != nil {
		return ErrAlreadyInitialized
	}

	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return err
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return err
	}

	pool = p
	return nil
}

// Pool returns the initialized singleton pool, or nil if Init has not
// run yet.
func Pool() *pgxpool.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()
	return pool
}

// Close releases the pool. Used by tests and graceful shutdown.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// AcquireConn returns the shared pool as a Querier for one-off,
// non-transactional queries (the dispatcher's read path).
func AcquireConn() (Querier, error) {
	p := Pool()
	if p == nil {
		return nil, ErrNotInitialized
	}
	return p, nil
}

// BeginTx starts a transactional handle for the reconcile loop. Callers
// must Commit or Rollback; a Querier over the same Tx is obtained by
// passing it directly, since pgx.Tx already satisfies Querier.
func BeginTx(ctx context.Context) (pgx.Tx, error) {
	p := Pool()
	if p == nil {
		return nil, ErrNotInitialized
	}
	return p.Begin(ctx)
}
