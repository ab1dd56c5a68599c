package sql

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/query"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/typer"
)

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ ExecQuerier = (*sql.Tx)(nil)
	_ ExecQuerier = (*sql.DB)(nil)
	_ ExecQuerier = (*Conn)(nil)
)

// Executor renders and runs the statements of table operations on one
// ExecQuerier, usually the transaction of a Scope. Statements are written
// with ? placeholders and rebound for the driver. Key violations and lost
// connections are reported as tabula.DuplicateKeyError and
// tabula.ConnectionError.
type Executor struct {
	q   ExecQuerier
	d   dialect.Dialect
	rec *recorder
}

// NewExecutor returns an executor running statements on q.
func NewExecutor(q ExecQuerier, d dialect.Dialect) *Executor {
	return &Executor{q: q, d: d, rec: newRecorder(Config{}.Apply())}
}

// Dialect returns the dialect statements are rendered with.
func (e *Executor) Dialect() dialect.Dialect { return e.d }

// Exec runs a write statement. The result holds the synthetic update
// count row.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	query = e.d.Rebind(query)
	start := time.Now()
	res, err := e.q.ExecContext(ctx, query, args...)
	e.rec.record(ctx, query, args, start, err, false)
	if err != nil {
		return Result{}, dialect.Translate(e.d, query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	r := writeResult(n)
	if id, err := res.LastInsertId(); err == nil {
		r.LastInsertID = id
	}
	return r, nil
}

// Query runs a read statement and returns its rows.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (Result, error) {
	query = e.d.Rebind(query)
	start := time.Now()
	rs, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		e.rec.record(ctx, query, args, start, err, true)
		return Result{}, dialect.Translate(e.d, query, err)
	}
	rows, err := ScanRows(rs)
	e.rec.record(ctx, query, args, start, err, true)
	if err != nil {
		return Result{}, dialect.Translate(e.d, query, err)
	}
	return Result{Rows: rows, Count: int64(len(rows))}, nil
}

// Selector describes a SELECT over one table.
type Selector struct {
	// Columns are the projected columns; all columns when empty.
	Columns []string
	Where   query.Node
	Order   []query.Order
	// Limit and Offset page the result; zero means unset.
	Limit  int
	Offset int
}

// Find returns the rows matching the selector.
func (e *Executor) Find(ctx context.Context, t *schema.Table, s Selector) ([]Row, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(s.Columns) == 0 {
		b.WriteByte('*')
	}
	for i, name := range s.Columns {
		c, err := column(t, name)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.d.QuoteIdent(c))
	}
	b.WriteString(" FROM ")
	b.WriteString(e.d.QuoteIdent(t.Name))
	where, args, err := e.where(t, s.Where)
	if err != nil {
		return nil, err
	}
	b.WriteString(where)
	for i, o := range s.Order {
		c, err := column(t, o.Column)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(e.d.QuoteIdent(c))
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	b.WriteString(e.d.Paginate(s.Limit, s.Offset))
	stmt := b.String()
	res, err := e.Query(ctx, stmt, args...)
	if err != nil {
		return nil, wrap(t, "find", stmt, err)
	}
	return res.Rows, nil
}

// Count returns the number of rows matching where.
func (e *Executor) Count(ctx context.Context, t *schema.Table, where query.Node) (int64, error) {
	cond, args, err := e.where(t, where)
	if err != nil {
		return 0, err
	}
	stmt := "SELECT COUNT(*) AS c FROM " + e.d.QuoteIdent(t.Name) + cond
	res, err := e.Query(ctx, stmt, args...)
	if err != nil {
		return 0, wrap(t, "count", stmt, err)
	}
	if len(res.Rows) != 1 {
		return 0, wrap(t, "count", stmt, fmt.Errorf("dialect/sql: count returned %d rows", len(res.Rows)))
	}
	n, err := typer.Decode[int64](first(res.Rows[0]), schema.TypeInt64)
	if err != nil {
		return 0, wrap(t, "count", stmt, err)
	}
	return n, nil
}

// GroupCount is the row count of one group.
type GroupCount struct {
	// Key is the wire value of the grouping column.
	Key   any
	Count int64
}

// CountGrouped counts the rows matching where per distinct value of the
// column.
func (e *Executor) CountGrouped(ctx context.Context, t *schema.Table, name string, where query.Node) ([]GroupCount, error) {
	c, err := column(t, name)
	if err != nil {
		return nil, err
	}
	cond, args, err := e.where(t, where)
	if err != nil {
		return nil, err
	}
	col := e.d.QuoteIdent(c)
	stmt := fmt.Sprintf("SELECT %s AS k, COUNT(*) AS c FROM %s%s GROUP BY %s", col, e.d.QuoteIdent(t.Name), cond, col)
	res, err := e.Query(ctx, stmt, args...)
	if err != nil {
		return nil, wrap(t, "count", stmt, err)
	}
	groups := make([]GroupCount, 0, len(res.Rows))
	for _, row := range res.Rows {
		n, err := typer.Decode[int64](lookupFold(row, "c"), schema.TypeInt64)
		if err != nil {
			return nil, wrap(t, "count", stmt, err)
		}
		groups = append(groups, GroupCount{Key: lookupFold(row, "k"), Count: n})
	}
	return groups, nil
}

// Update assigns set and adds incr to the matching rows, and returns the
// number of affected rows. Both maps are keyed by column. When both are
// empty no statement is issued.
func (e *Executor) Update(ctx context.Context, t *schema.Table, set, incr map[string]any, where query.Node) (int64, error) {
	if len(set) == 0 && len(incr) == 0 {
		return 0, nil
	}
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("UPDATE ")
	b.WriteString(e.d.QuoteIdent(t.Name))
	b.WriteString(" SET ")
	n := 0
	assign := func(values map[string]any, increment bool) error {
		for _, name := range sortedKeys(values) {
			c, ok := t.Column(name)
			if !ok {
				return fmt.Errorf("dialect/sql: unknown column %q in table %q", name, t.Name)
			}
			if increment && !c.Type.Numeric() {
				return fmt.Errorf("dialect/sql: increment of non numeric column %q", c.Name)
			}
			v, err := typer.Serialize(values[name], c.Type)
			if err != nil {
				return fmt.Errorf("dialect/sql: column %q: %w", c.Name, err)
			}
			if n > 0 {
				b.WriteString(", ")
			}
			n++
			col := e.d.QuoteIdent(c.Name)
			b.WriteString(col)
			b.WriteString(" = ")
			if increment {
				b.WriteString(col)
				b.WriteString(" + ")
			}
			b.WriteByte('?')
			args = append(args, v)
		}
		return nil
	}
	if err := assign(set, false); err != nil {
		return 0, err
	}
	if err := assign(incr, true); err != nil {
		return 0, err
	}
	cond, wargs, err := e.where(t, where)
	if err != nil {
		return 0, err
	}
	b.WriteString(cond)
	stmt := b.String()
	res, err := e.Exec(ctx, stmt, append(args, wargs...)...)
	if err != nil {
		return 0, wrap(t, "update", stmt, err)
	}
	return res.Count, nil
}

// Delete removes the rows matching where, at most limit of them when
// limit is positive, and returns the number of removed rows.
func (e *Executor) Delete(ctx context.Context, t *schema.Table, where query.Node, limit int) (int64, error) {
	if where == nil {
		where = query.Always{}
	}
	cond, args, err := dialect.Render(e.d, t, where)
	if err != nil {
		return 0, err
	}
	table := e.d.QuoteIdent(t.Name)
	stmt := "DELETE FROM " + table + " WHERE " + cond
	if limit > 0 {
		if stmt, err = e.d.DeleteLimit(table, cond, limit); err != nil {
			return 0, err
		}
	}
	res, err := e.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, wrap(t, "delete", stmt, err)
	}
	return res.Count, nil
}

// InsertResult is the outcome of an insert.
type InsertResult struct {
	// Count is the number of affected rows reported by the database.
	Count int64
	// LastID is the key generated for the last inserted row, when the table
	// has an auto increment column.
	LastID int64
}

// Insert writes rows keyed by column. Insert columns missing from a row
// are written as NULL when nullable and as their default otherwise. Rows
// are batched into extended inserts where the dialect and the conflict
// policy allow it.
func (e *Executor) Insert(ctx context.Context, t *schema.Table, rows []Row, policy dialect.ConflictPolicy) (InsertResult, error) {
	var res InsertResult
	if len(rows) == 0 {
		return res, nil
	}
	cols := t.InsertColumns()
	if oc := t.OverflowColumn(); oc != nil {
		cols = append(cols, oc)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	unique := t.UniqueColumns()
	batch, err := dialect.BatchRows(e.d, t.Name, names, unique, policy)
	if err != nil {
		return res, err
	}
	autoinc := slices.ContainsFunc(t.Columns, func(c *schema.Column) bool { return c.AutoIncrement })
	for chunk := range slices.Chunk(rows, batch) {
		stmt, repeat, err := dialect.Insert(e.d, t.Name, names, unique, policy, len(chunk))
		if err != nil {
			return res, err
		}
		args := make([]any, 0, len(chunk)*len(cols)*max(repeat, 1))
		for _, row := range chunk {
			values, err := insertValues(t, cols, row)
			if err != nil {
				return res, err
			}
			args = append(args, dialect.InsertArgs(values, repeat)...)
		}
		r, err := e.Exec(ctx, stmt, args...)
		if err != nil {
			return res, wrap(t, "insert", stmt, err)
		}
		res.Count += r.Count
		res.LastID = r.LastInsertID
		if q := e.d.LastInsertID(); autoinc && q != "" {
			id, err := e.Query(ctx, q)
			if err != nil {
				return res, wrap(t, "insert", q, err)
			}
			if len(id.Rows) == 1 {
				if res.LastID, err = typer.Decode[int64](first(id.Rows[0]), schema.TypeInt64); err != nil {
					return res, wrap(t, "insert", q, err)
				}
			}
		}
	}
	return res, nil
}

func insertValues(t *schema.Table, cols []*schema.Column, row Row) ([]any, error) {
	for k := range row {
		if _, ok := t.Column(k); !ok && k != t.OverflowName {
			return nil, fmt.Errorf("dialect/sql: unknown column %q in table %q", k, t.Name)
		}
	}
	values := make([]any, len(cols))
	for i, c := range cols {
		v, ok := row[c.Name]
		if !ok && c.Field != "" {
			v, ok = row[c.Field]
		}
		switch {
		case !ok && c.Nullable:
			continue
		case !ok && c.Default == nil:
			values[i] = schema.ZeroValue(c)
			continue
		case !ok:
			v = c.Default
		}
		w, err := typer.Serialize(v, c.Type)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: column %q: %w", c.Name, err)
		}
		values[i] = w
	}
	return values, nil
}

// Columns returns the names of the live columns of a table.
func (e *Executor) Columns(ctx context.Context, table string) ([]string, error) {
	q, args, name := e.d.DescribeColumns(table)
	res, err := e.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		switch v := lookupFold(row, name).(type) {
		case string:
			names = append(names, v)
		case []byte:
			names = append(names, string(v))
		default:
			return nil, fmt.Errorf("dialect/sql: describe %s: unexpected column name %T", table, v)
		}
	}
	return names, nil
}

// where renders a WHERE clause; a nil predicate matches every row.
func (e *Executor) where(t *schema.Table, n query.Node) (string, []any, error) {
	if n == nil {
		return "", nil, nil
	}
	cond, args, err := dialect.Render(e.d, t, n)
	if err != nil {
		return "", nil, err
	}
	return " WHERE " + cond, args, nil
}

func column(t *schema.Table, name string) (string, error) {
	c, ok := t.Column(name)
	if !ok {
		return "", fmt.Errorf("dialect/sql: unknown column %q in table %q", name, t.Name)
	}
	return c.Name, nil
}

// wrap reports database failures as a QueryError, leaving classified
// errors as they are.
func wrap(t *schema.Table, op, stmt string, err error) error {
	if tabula.IsDuplicateKey(err) || tabula.IsConnectionError(err) {
		return err
	}
	return tabula.NewQueryError(t.Name, op, stmt, err)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// first returns the value of a single column row.
func first(row Row) any {
	for _, v := range row {
		return v
	}
	return nil
}

// lookupFold returns the value of a column, matching its name case
// insensitively as some databases fold result column names.
func lookupFold(row Row, name string) any {
	if v, ok := row[name]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}
