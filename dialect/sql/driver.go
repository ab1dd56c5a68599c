package sql

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/tabula/dialect"

	// Drivers of the bundled dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB is a database handle: a dialect, a pool of connections over a
// database/sql.DB, the dispatcher scheduling operations and the statement
// statistics. It is safe for concurrent use.
type DB struct {
	db         *sql.DB
	dialect    dialect.Dialect
	cfg        Config
	pool       *Pool
	dispatcher *Dispatcher
	rec        *recorder

	boMu    sync.Mutex
	failing atomic.Bool // a connection failure awaits a backoff reset
}

// Open opens a database of the named dialect with its bundled driver.
func Open(dialectName, dsn string, opts ...Option) (*DB, error) {
	return OpenConfig(Config{Dialect: dialectName, DSN: dsn}, opts...)
}

// OpenConfig opens the database described by cfg. Options override the
// values of cfg.
func OpenConfig(cfg Config, opts ...Option) (*DB, error) {
	cfg = cfg.Apply(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	d, err := dialect.New(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if d.Driver() == "" {
		return nil, fmt.Errorf("dialect/sql: no driver bundled for dialect %q, use OpenDB", d.Name())
	}
	source, err := cfg.DataSource()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.Driver(), source)
	if err != nil {
		return nil, err
	}
	return newDB(d, db, cfg), nil
}

// OpenDB wraps an opened database/sql.DB. It is how dialects without a
// bundled driver, and tests, obtain a DB.
func OpenDB(d dialect.Dialect, db *sql.DB, opts ...Option) *DB {
	return newDB(d, db, Config{Dialect: d.Name()}.Apply(opts...))
}

func newDB(d dialect.Dialect, db *sql.DB, cfg Config) *DB {
	return &DB{
		db:         db,
		dialect:    d,
		cfg:        cfg,
		pool:       NewPool(db, cfg.PoolSize, cfg.IdleTimeout, cfg.Logger),
		dispatcher: NewDispatcher(cfg.Mode, cfg.Workers),
		rec:        newRecorder(cfg),
	}
}

// Dialect returns the dialect of the database.
func (db *DB) Dialect() dialect.Dialect { return db.dialect }

// Config returns the effective configuration.
func (db *DB) Config() Config { return db.cfg }

// DB returns the underlying *sql.DB instance.
func (db *DB) DB() *sql.DB { return db.db }

// Pool returns the connection pool.
func (db *DB) Pool() *Pool { return db.pool }

// QueryStats returns the statement statistics.
func (db *DB) QueryStats() *QueryStats { return db.rec.stats }

// Stats returns a snapshot of the statement statistics.
func (db *DB) Stats() StatsSnapshot { return db.rec.stats.Stats() }

// SetSlowThreshold updates the slow query threshold.
func (db *DB) SetSlowThreshold(d time.Duration) { db.rec.setThreshold(d) }

// Close closes the pool and the database.
func (db *DB) Close() error {
	if err := db.pool.Close(); err != nil {
		return err
	}
	return db.db.Close()
}

func (db *DB) executor(q ExecQuerier) *Executor {
	return &Executor{q: q, d: db.dialect, rec: db.rec}
}
