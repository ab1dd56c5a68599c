package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	migrate "github.com/syssam/tabula/dialect/sql/schema"
	"github.com/syssam/tabula/query"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/typer"
)

// Option configures a Table.
type Option func(*options)

type options struct {
	migrator *migrate.Migrator
	migrate  []migrate.MigrateOption
}

// WithMigrator shares m between tables. By default every table owns a
// migrator created with the options given to WithMigrateOptions.
func WithMigrator(m *migrate.Migrator) Option {
	return func(o *options) { o.migrator = m }
}

// WithMigrateOptions configures the migrator owned by the table.
func WithMigrateOptions(opts ...migrate.MigrateOption) Option {
	return func(o *options) { o.migrate = append(o.migrate, opts...) }
}

// Table gives typed access to one declared table. It is safe for
// concurrent use.
type Table[T any] struct {
	db       *sql.DB
	schema   *schema.Table
	codec    Codec[T]
	migrator *migrate.Migrator
}

// New binds the declared table t of db to the entity type T.
func New[T any](db *sql.DB, t *schema.Table, codec Codec[T], opts ...Option) *Table[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.migrator == nil {
		o.migrator = migrate.NewMigrator(db, o.migrate...)
	}
	return &Table[T]{db: db, schema: t, codec: codec, migrator: o.migrator}
}

// Schema returns the declared table.
func (t *Table[T]) Schema() *schema.Table { return t.schema }

// DB returns the database of the table.
func (t *Table[T]) DB() *sql.DB { return t.db }

// Initialize brings the live table up to date with its declaration. It
// runs once per migrator; every other operation calls it first.
func (t *Table[T]) Initialize(ctx context.Context, scope *sql.Scope) error {
	return t.migrator.Initialize(ctx, scope, t.schema)
}

// Transact runs fn in a transaction, or in scope when it is bound.
func (t *Table[T]) Transact(ctx context.Context, scope *sql.Scope, fn func(context.Context, *sql.Scope) error) error {
	return t.transact(ctx, scope, fn)
}

func (t *Table[T]) transact(ctx context.Context, scope *sql.Scope, fn func(context.Context, *sql.Scope) error) error {
	return t.db.Transact(ctx, scope, func(ctx context.Context, s *sql.Scope) error {
		if err := t.Initialize(ctx, s); err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

// Insert inserts one entity.
func (t *Table[T]) Insert(ctx context.Context, scope *sql.Scope, v T, policy dialect.ConflictPolicy) (sql.InsertResult, error) {
	return t.InsertMany(ctx, scope, []T{v}, policy)
}

// InsertMany inserts entities in batches. Rows conflicting on a unique
// column are handled according to policy; with dialect.ConflictError the
// whole call fails with a tabula.DuplicateKeyError.
func (t *Table[T]) InsertMany(ctx context.Context, scope *sql.Scope, vs []T, policy dialect.ConflictPolicy) (sql.InsertResult, error) {
	var res sql.InsertResult
	if len(vs) == 0 {
		return res, nil
	}
	rows := make([]sql.Row, len(vs))
	for i, v := range vs {
		r, err := t.codec.Encode(v)
		if err != nil {
			return res, fmt.Errorf("table: encoding %s: %w", t.schema.Name, err)
		}
		if rows[i], err = pack(t.schema, r); err != nil {
			return res, err
		}
	}
	err := t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		res, err = s.Executor().Insert(ctx, t.schema, rows, policy)
		return err
	})
	return res, err
}

// FindOption configures a Find call.
type FindOption func(*sql.Selector)

// Limit caps the number of returned entities.
func Limit(n int) FindOption {
	return func(s *sql.Selector) { s.Limit = n }
}

// Offset skips the first n matching entities.
func Offset(n int) FindOption {
	return func(s *sql.Selector) { s.Offset = n }
}

// OrderBy sorts the result.
func OrderBy(orders ...query.Order) FindOption {
	return func(s *sql.Selector) { s.Order = append(s.Order, orders...) }
}

// Find returns the entities matching where. A nil where matches every row.
func (t *Table[T]) Find(ctx context.Context, scope *sql.Scope, where query.Node, opts ...FindOption) ([]T, error) {
	sel := sql.Selector{Where: where}
	for _, opt := range opts {
		opt(&sel)
	}
	var rows []sql.Row
	err := t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		rows, err = s.Executor().Find(ctx, t.schema, sel)
		return err
	})
	if err != nil {
		return nil, err
	}
	vs := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := t.decode(row)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// FindOne returns the only entity matching where. It fails with a
// tabula.NotFoundError when nothing matches and a tabula.NotSingularError
// when more than one entity does.
func (t *Table[T]) FindOne(ctx context.Context, scope *sql.Scope, where query.Node) (T, error) {
	var (
		zero T
		rows []sql.Row
		n    int64
	)
	err := t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		if rows, err = s.Executor().Find(ctx, t.schema, sql.Selector{Where: where, Limit: 2}); err != nil || len(rows) < 2 {
			return err
		}
		n, err = s.Executor().Count(ctx, t.schema, where)
		return err
	})
	switch {
	case err != nil:
		return zero, err
	case len(rows) == 0:
		return zero, tabula.NewNotFoundError(t.schema.Name)
	case len(rows) > 1:
		return zero, tabula.NewNotSingularError(t.schema.Name, int(n))
	}
	return t.decode(rows[0])
}

// Count returns the number of rows matching where.
func (t *Table[T]) Count(ctx context.Context, scope *sql.Scope, where query.Node) (n int64, err error) {
	err = t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		n, err = s.Executor().Count(ctx, t.schema, where)
		return err
	})
	return n, err
}

// CountGrouped counts the rows matching where per distinct value of
// field. Keys are decoded to the Go type of the column.
func (t *Table[T]) CountGrouped(ctx context.Context, scope *sql.Scope, field string, where query.Node) ([]sql.GroupCount, error) {
	c, ok := t.schema.Column(field)
	if !ok {
		return nil, fmt.Errorf("table: unknown field %q in table %q", field, t.schema.Name)
	}
	var groups []sql.GroupCount
	err := t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		groups, err = s.Executor().CountGrouped(ctx, t.schema, c.Name, where)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Key, err = typer.Deserialize(groups[i].Key, c.Type); err != nil {
			return nil, fmt.Errorf("table: %s.%s: %w", t.schema.Name, c.Name, err)
		}
	}
	return groups, nil
}

// Update assigns set and adds incr to the rows matching where and returns
// the number of affected rows. Only declared fields can be updated.
func (t *Table[T]) Update(ctx context.Context, scope *sql.Scope, set, incr Record, where query.Node) (n int64, err error) {
	err = t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		n, err = s.Executor().Update(ctx, t.schema, set, incr, where)
		return err
	})
	return n, err
}

// Delete removes the rows matching where, at most limit rows when limit
// is positive, and returns the number of removed rows.
func (t *Table[T]) Delete(ctx context.Context, scope *sql.Scope, where query.Node, limit int) (n int64, err error) {
	err = t.transact(ctx, scope, func(ctx context.Context, s *sql.Scope) (err error) {
		n, err = s.Executor().Delete(ctx, t.schema, where, limit)
		return err
	})
	return n, err
}

// decode converts a result row into an entity. Overflow fields never
// shadow declared ones.
func (t *Table[T]) decode(row sql.Row) (T, error) {
	var zero T
	r := make(Record, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		wire, ok := lookup(row, c.Name)
		if !ok {
			continue
		}
		v, err := typer.Deserialize(wire, c.Type)
		if err != nil {
			return zero, fmt.Errorf("table: %s.%s: %w", t.schema.Name, c.Name, err)
		}
		r[c.Field] = v
	}
	if t.schema.Extrinsic() {
		wire, _ := lookup(row, t.schema.OverflowName)
		extra, err := decodeOverflow(t.schema.Overflow, wire)
		if err != nil {
			return zero, fmt.Errorf("table: %s: %w", t.schema.Name, err)
		}
		for k, v := range extra {
			if _, ok := r[k]; !ok {
				r[k] = v
			}
		}
	}
	v, err := t.codec.Decode(r)
	if err != nil {
		return zero, fmt.Errorf("table: decoding %s: %w", t.schema.Name, err)
	}
	return v, nil
}

// lookup returns the value of a column, matching its name case
// insensitively when the database folds identifiers.
func lookup(row sql.Row, name string) (any, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
