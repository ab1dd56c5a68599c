package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by acquisitions after the pool was closed.
var ErrPoolClosed = errors.New("dialect/sql: pool closed")

// Conn is a pooled connection. It owns at most one physical connection,
// opened on first use and replaced when it was idle for longer than the
// pool's idle timeout. A checked out Conn is owned by its holder until it
// is released.
type Conn struct {
	pool     *Pool
	conn     *sql.Conn
	lastUsed time.Time // guarded by pool.mu while idle
}

// BeginTx starts a transaction on the physical connection.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if c.conn == nil {
		return nil, sql.ErrConnDone
	}
	return c.conn.BeginTx(ctx, opts)
}

// ExecContext executes a statement outside of a transaction.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.conn == nil {
		return nil, sql.ErrConnDone
	}
	return c.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query outside of a transaction.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.conn == nil {
		return nil, sql.ErrConnDone
	}
	return c.conn.QueryContext(ctx, query, args...)
}

// open opens the physical connection, replacing it first when it sat idle
// past the timeout.
func (c *Conn) open(ctx context.Context, lastUsed time.Time) error {
	p := c.pool
	if c.conn != nil && p.idleTimeout > 0 && time.Since(lastUsed) > p.idleTimeout {
		p.log.Debug("replacing idle connection", "idle", time.Since(lastUsed))
		c.close(true)
	}
	if c.conn != nil {
		return nil
	}
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	p.open.Add(1)
	p.opens.Add(1)
	return nil
}

// close closes the physical connection. With discard set, the connection
// is evicted from the driver instead of being returned to database/sql.
func (c *Conn) close(discard bool) {
	if c.conn == nil {
		return
	}
	if discard {
		_ = c.conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	_ = c.conn.Close()
	c.conn = nil
	c.pool.open.Add(-1)
}

// Pool is a fixed capacity set of pooled connections over one *sql.DB.
// At most Capacity physical connections are open at any time; an
// acquisition blocks while all of them are checked out.
type Pool struct {
	db          *sql.DB
	capacity    int
	idleTimeout time.Duration
	log         *slog.Logger
	sem         *semaphore.Weighted

	mu     sync.Mutex
	idle   []*Conn
	closed bool

	open     atomic.Int64
	opens    atomic.Int64
	inUse    atomic.Int64
	waits    atomic.Int64
	discards atomic.Int64
}

// NewPool returns a pool of the given capacity over db. The capacity is
// also applied as the db's limit of open connections.
func NewPool(db *sql.DB, capacity int, idleTimeout time.Duration, log *slog.Logger) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolSize
	}
	if log == nil {
		log = slog.Default()
	}
	db.SetMaxOpenConns(capacity)
	db.SetMaxIdleConns(capacity)
	return &Pool{
		db:          db,
		capacity:    capacity,
		idleTimeout: idleTimeout,
		log:         log,
		sem:         semaphore.NewWeighted(int64(capacity)),
	}
}

// Acquire checks out a connection, blocking until one is free or ctx is
// done. The connection must be returned with Release. Prefer Take.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if !p.sem.TryAcquire(1) {
		p.waits.Add(1)
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}
	var (
		c        *Conn
		lastUsed time.Time
	)
	if n := len(p.idle); n > 0 {
		c = p.idle[n-1]
		p.idle = p.idle[:n-1]
		lastUsed = c.lastUsed
	} else {
		c = &Conn{pool: p}
	}
	p.mu.Unlock()
	p.inUse.Add(1)
	if err := c.open(ctx, lastUsed); err != nil {
		p.Release(c)
		return nil, err
	}
	return c, nil
}

// Release returns a connection to the idle set.
func (p *Pool) Release(c *Conn) {
	p.mu.Lock()
	if p.closed {
		c.close(false)
	} else {
		c.lastUsed = time.Now()
		p.idle = append(p.idle, c)
	}
	p.mu.Unlock()
	p.inUse.Add(-1)
	p.sem.Release(1)
}

// Discard closes the physical connection of a checked out Conn. The Conn
// stays checked out; its next use opens a fresh connection.
func (p *Pool) Discard(c *Conn) {
	if c.conn == nil {
		return
	}
	c.close(true)
	p.discards.Add(1)
	p.log.Warn("discarded pooled connection")
}

// Take checks out a connection, runs fn with it and releases it, also
// when fn fails or panics.
func (p *Pool) Take(ctx context.Context, fn func(context.Context, *Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(c)
	return fn(ctx, c)
}

// Close closes the idle connections. Connections checked out are closed
// when released. Acquisitions after Close fail with ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, c := range p.idle {
		c.close(false)
	}
	p.idle = nil
	return nil
}

// PoolStats is a point-in-time snapshot of pool usage.
type PoolStats struct {
	Capacity int
	// Open is the number of open physical connections.
	Open int64
	// Opens is the number of physical connections opened so far.
	Opens int64
	InUse int64
	// Waits is the number of acquisitions that had to wait for a slot.
	Waits    int64
	Discards int64
}

// Stats returns a snapshot of the pool usage.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Capacity: p.capacity,
		Open:     p.open.Load(),
		Opens:    p.opens.Load(),
		InUse:    p.inUse.Load(),
		Waits:    p.waits.Load(),
		Discards: p.discards.Load(),
	}
}
