// Package schema brings live tables up to date with their declared
// columns and indexes.
//
// Migration only adds: tables, columns and indexes missing from the live
// database are created. Nothing is dropped or altered, so running a
// migration again is a no-op.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// MigrateOption configures a Migrator.
type MigrateOption func(*Migrator)

// WithIgnoreErrors logs failed column and index changes and continues
// instead of failing the migration. It defaults to the
// IgnoreMigrationErrors setting of the DB.
func WithIgnoreErrors(ignore bool) MigrateOption {
	return func(m *Migrator) { m.ignore = ignore }
}

// WithLogger sets the logger. It defaults to the logger of the DB.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrator) { m.log = l }
}

// Migrator migrates tables on first use.
type Migrator struct {
	db     *sql.DB
	ignore bool
	log    *slog.Logger
	tables sync.Map // table name to *migration
}

type migration struct {
	mu   sync.Mutex
	done atomic.Bool
}

// NewMigrator returns a migrator for tables of db.
func NewMigrator(db *sql.DB, opts ...MigrateOption) *Migrator {
	cfg := db.Config()
	m := &Migrator{db: db, ignore: cfg.IgnoreMigrationErrors, log: cfg.Logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Initialize migrates t unless it was already migrated successfully by
// this migrator. Concurrent calls for the same table wait for the first
// one to finish. Within a bound scope the table counts as migrated once
// the enclosing transaction commits.
//
// The connection is always acquired before the per-table lock, so callers
// holding a connection never wait on a caller waiting for one.
func (m *Migrator) Initialize(ctx context.Context, scope *sql.Scope, t *schema.Table) error {
	v, _ := m.tables.LoadOrStore(t.Name, &migration{})
	mg := v.(*migration)
	if mg.done.Load() {
		return nil
	}
	if scope.Bound() {
		mg.mu.Lock()
		defer mg.mu.Unlock()
		return m.initialize(ctx, scope, mg, t)
	}
	return m.db.Transact(ctx, nil, func(ctx context.Context, s *sql.Scope) error {
		mg.mu.Lock()
		s.OnEnd(mg.mu.Unlock)
		return m.initialize(ctx, s, mg, t)
	})
}

// initialize runs with mg.mu held and s bound.
func (m *Migrator) initialize(ctx context.Context, s *sql.Scope, mg *migration, t *schema.Table) error {
	if mg.done.Load() {
		return nil
	}
	if _, err := m.Migrate(ctx, s, t); err != nil {
		return err
	}
	s.OnCommit(func() { mg.done.Store(true) })
	return nil
}

// Report describes the changes of one migration.
type Report struct {
	Table string
	// Added holds the columns added to an existing table.
	Added []string
	// Skipped holds the failures ignored in best-effort mode.
	Skipped []error
}

// Err returns the skipped failures as one error, or nil when the
// migration applied every change.
func (r *Report) Err() error {
	return tabula.NewAggregateError(r.Skipped...)
}

// Migrate brings the live table up to date with t:
//
//  1. CREATE TABLE IF NOT EXISTS with every declared column.
//  2. Read the live columns.
//  3. ALTER TABLE ADD COLUMN for each missing column, followed by its
//     ADD_COLUMN hooks.
//  4. Add the overflow column of an extrinsic table if it is missing.
//  5. Create every declared index group if it does not exist.
//
// All statements run in one transaction, in scope when it is bound.
func (m *Migrator) Migrate(ctx context.Context, scope *sql.Scope, t *schema.Table) (*Report, error) {
	report := &Report{Table: t.Name}
	err := m.db.Transact(ctx, scope, func(ctx context.Context, s *sql.Scope) error {
		d := m.db.Dialect()
		stmt, err := dialect.CreateTable(d, t)
		if err != nil {
			return tabula.NewSchemaMigrationError(t.Name, "", "", err)
		}
		if _, err := s.Exec(ctx, stmt); err != nil {
			return tabula.NewSchemaMigrationError(t.Name, "", stmt, err)
		}
		live, err := s.Executor().Columns(ctx, t.Name)
		if err != nil {
			return tabula.NewSchemaMigrationError(t.Name, "", "", fmt.Errorf("describing columns: %w", err))
		}
		diff := Compare(t, live)
		if len(diff.Extra) > 0 {
			m.log.DebugContext(ctx, "live columns not declared", "table", t.Name, "columns", diff.Extra)
		}
		missing := diff.Missing
		if diff.Overflow != nil {
			missing = append(missing[:len(missing):len(missing)], diff.Overflow)
		}
		for _, c := range missing {
			merr := m.addColumn(ctx, s, t, c)
			if merr == nil {
				report.Added = append(report.Added, c.Name)
			}
			if err := m.report(ctx, report, merr); err != nil {
				return err
			}
		}
		for _, g := range t.Indexes {
			if err := m.report(ctx, report, m.createIndex(ctx, s, t, g)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, c := range report.Added {
		m.log.InfoContext(ctx, "added column", "table", t.Name, "column", c)
	}
	return report, nil
}

func (m *Migrator) addColumn(ctx context.Context, s *sql.Scope, t *schema.Table, c *schema.Column) *tabula.SchemaMigrationError {
	stmt, err := dialect.AddColumn(m.db.Dialect(), t.Name, c)
	if err != nil {
		return tabula.NewSchemaMigrationError(t.Name, c.Name, "", err)
	}
	if _, err := s.Exec(ctx, stmt); err != nil {
		return tabula.NewSchemaMigrationError(t.Name, c.Name, stmt, err)
	}
	hc := schema.HookContext{
		Table:  t,
		Column: c,
		Action: schema.ActionAddColumn,
		Exec: func(ctx context.Context, query string, args ...any) (int64, error) {
			res, err := s.Exec(ctx, query, args...)
			return res.Count, err
		},
	}
	for _, hook := range c.Hooks[schema.ActionAddColumn] {
		if err := hook(ctx, hc); err != nil {
			return tabula.NewSchemaMigrationError(t.Name, c.Name, stmt, fmt.Errorf("%s hook: %w", schema.ActionAddColumn, err))
		}
	}
	return nil
}

func (m *Migrator) createIndex(ctx context.Context, s *sql.Scope, t *schema.Table, g *schema.IndexGroup) *tabula.SchemaMigrationError {
	d := m.db.Dialect()
	stmt, err := dialect.CreateIndex(d, t.Name, g)
	if err != nil {
		return tabula.NewSchemaMigrationError(t.Name, "", "", err)
	}
	if _, err := s.Exec(ctx, stmt); err != nil && !d.IsIndexExists(err) {
		return tabula.NewSchemaMigrationError(t.Name, "", stmt, err)
	}
	return nil
}

// report records the outcome of one change. A failure is returned unless
// the migrator ignores errors, in which case it is logged and skipped.
func (m *Migrator) report(ctx context.Context, r *Report, err *tabula.SchemaMigrationError) error {
	switch {
	case err == nil:
		return nil
	case tabula.IsConnectionError(err), m.db.Dialect().IsConnectionError(err.Err):
		return err
	case m.ignore:
		m.log.WarnContext(ctx, "ignoring schema migration error",
			"table", err.Table, "column", err.Column, "error", err.Err)
		r.Skipped = append(r.Skipped, err)
		return nil
	default:
		return err
	}
}
