// Package sql runs table operations against SQL databases.
//
// A DB combines a dialect, a bounded pool of connections over a
// database/sql.DB and a dispatcher scheduling operations:
//
//	db, err := sql.Open(dialect.SQLite, "file:app.db",
//	    sql.WithPoolSize(4),
//	    sql.WithMode(sql.ModeAsync),
//	)
//
// Configuration may also be loaded from YAML with LoadConfig and passed to
// OpenConfig.
//
// # Pool
//
// The pool holds at most PoolSize connections. A pooled connection is
// opened on first checkout and replaced on checkout once it sat idle longer
// than IdleTimeout; there is no background sweep. Pool.Take checks out a
// connection for the duration of a callback and returns it even when the
// callback fails, panics or its context is canceled.
//
// # Transactions
//
// Every operation runs in a transaction bound to one connection:
//
//	err := db.Transact(ctx, nil, func(ctx context.Context, s *sql.Scope) error {
//	    if _, err := s.Executor().Insert(ctx, users, rows, dialect.ConflictError); err != nil {
//	        return err
//	    }
//	    // Nested calls pass the scope on and share its transaction.
//	    return db.Transact(ctx, s, audit)
//	})
//
// The transaction commits when the callback returns nil and rolls back
// otherwise. Scope.OnCommit defers work until the commit succeeded and
// Scope.OnEnd until the transaction ended. After a lost connection, the
// connection is discarded and Transact pauses as scheduled by the backoff
// policy before it returns a tabula.ConnectionError.
//
// # Statistics
//
// DB.Stats reports statement counts, errors and slow statements; a slow
// query hook can be registered with WithSlowQueryHook or WithSlowQueryLog.
// Pool.Stats reports open connections, waits and discards.
package sql
