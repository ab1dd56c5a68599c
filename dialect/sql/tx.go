package sql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
)

// Scope is the execution scope of one unit of work: a transaction on a
// checked out connection. Operations receiving a bound scope run on its
// connection instead of acquiring another one. A Scope must not be used
// after the Transact call that created it returned.
type Scope struct {
	conn     *Conn
	tx       *sql.Tx
	ex       *Executor
	onCommit []func()
	onEnd    []func()
}

// Bound reports whether the scope carries a transaction. A nil scope is
// unbound.
func (s *Scope) Bound() bool { return s != nil && s.tx != nil }

// Executor returns the executor running statements in the transaction.
func (s *Scope) Executor() *Executor { return s.ex }

// OnCommit registers f to run after the transaction committed. Functions
// run in registration order and are dropped on rollback.
func (s *Scope) OnCommit(f func()) { s.onCommit = append(s.onCommit, f) }

// OnEnd registers f to run once the transaction ended, after the commit
// and its OnCommit functions or after the rollback, also when the
// transaction is rolled back by a panic.
func (s *Scope) OnEnd(f func()) { s.onEnd = append(s.onEnd, f) }

// Exec runs a raw statement in the transaction.
func (s *Scope) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return s.ex.Exec(ctx, query, args...)
}

// Query runs a raw query in the transaction.
func (s *Scope) Query(ctx context.Context, query string, args ...any) (Result, error) {
	return s.ex.Query(ctx, query, args...)
}

// Transact runs fn in a transaction. When scope is bound fn runs in it
// and Transact does not commit; the outermost call owns the transaction.
// Otherwise a connection is checked out, a transaction begun and fn run
// with a scope bound to it. The transaction is committed when fn succeeds
// and rolled back when it fails or panics, and the error of fn is returned.
//
// When the failure is a lost connection, the physical connection is
// discarded and Transact waits for the configured backoff before returning
// a tabula.ConnectionError.
func (db *DB) Transact(ctx context.Context, scope *Scope, fn func(context.Context, *Scope) error) error {
	if scope.Bound() {
		return fn(ctx, scope)
	}
	return db.dispatcher.Do(ctx, func(ctx context.Context) error {
		return db.pool.Take(ctx, func(ctx context.Context, c *Conn) error {
			return db.recoverConn(ctx, c, db.run(ctx, c, fn))
		})
	})
}

func (db *DB) run(ctx context.Context, c *Conn, fn func(context.Context, *Scope) error) (err error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return dialect.Translate(db.dialect, "BEGIN", err)
	}
	s := &Scope{conn: c, tx: tx, ex: db.executor(tx)}
	defer func() {
		for _, f := range s.onEnd {
			f()
		}
	}()
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(ctx, s); err != nil {
		return rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return dialect.Translate(db.dialect, "COMMIT", err)
	}
	for _, f := range s.onCommit {
		f()
	}
	return nil
}

// recoverConn discards the connection after a connection level failure and
// pauses before the failure is reported. Any other outcome resets the
// backoff policy.
func (db *DB) recoverConn(ctx context.Context, c *Conn, err error) error {
	if err == nil || !tabula.IsConnectionError(err) && !db.dialect.IsConnectionError(err) {
		db.resetBackoff()
		return err
	}
	db.pool.Discard(c)
	if !tabula.IsConnectionError(err) {
		err = tabula.NewConnectionError(err)
	}
	wait := db.nextBackoff(ctx)
	if wait == backoff.Stop {
		return err
	}
	db.cfg.Logger.WarnContext(ctx, "connection failure, backing off", "error", err, "backoff", wait)
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return err
}

func (db *DB) nextBackoff(ctx context.Context) time.Duration {
	db.boMu.Lock()
	defer db.boMu.Unlock()
	db.failing.Store(true)
	return backoff.WithContext(db.cfg.BackOff, ctx).NextBackOff()
}

func (db *DB) resetBackoff() {
	if !db.failing.Load() {
		return
	}
	db.boMu.Lock()
	defer db.boMu.Unlock()
	if db.failing.CompareAndSwap(true, false) {
		db.cfg.BackOff.Reset()
	}
}

// rollback calls to tx.Rollback and wraps the given error
// with the rollback error if occurred.
func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
		return &tabula.RollbackError{Err: err, Rollback: rerr}
	}
	return err
}
