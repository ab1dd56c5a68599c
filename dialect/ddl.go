package dialect

import (
	"fmt"
	"strings"

	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/typer"
)

// ColumnType returns the SQL type of c, honoring per dialect overrides.
func ColumnType(d Dialect, c *schema.Column) string {
	if t, ok := c.SchemaType[d.Name()]; ok && t != "" {
		return t
	}
	return d.TypeName(c)
}

// ColumnClause renders the definition of one column:
//
//	name type [AUTOINCREMENT | NULL | NOT NULL DEFAULT (literal)]
func ColumnClause(d Dialect, c *schema.Column) (string, error) {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(ColumnType(d, c))
	switch {
	case c.AutoIncrement:
		b.WriteByte(' ')
		b.WriteString(d.AutoIncrement(c))
	case c.Nullable:
		b.WriteString(" NULL")
	default:
		lit, err := DefaultLiteral(d, c)
		if err != nil {
			return "", err
		}
		b.WriteString(" NOT NULL DEFAULT (")
		b.WriteString(lit)
		b.WriteByte(')')
	}
	return b.String(), nil
}

// DefaultLiteral renders the default value of a NOT NULL column.
func DefaultLiteral(d Dialect, c *schema.Column) (string, error) {
	v := schema.ZeroValue(c)
	if c.Default != nil {
		var err error
		if v, err = typer.Serialize(c.Default, c.Type); err != nil {
			return "", fmt.Errorf("dialect: default of column %q: %w", c.Name, err)
		}
	}
	return Literal(d, v)
}

// CreateTable renders a CREATE TABLE IF NOT EXISTS statement for the
// declared columns of t, including its overflow column.
func CreateTable(d Dialect, t *schema.Table) (string, error) {
	cols := t.Columns
	if oc := t.OverflowColumn(); oc != nil {
		cols = append(cols[:len(cols):len(cols)], oc)
	}
	clauses := make([]string, len(cols))
	for i, c := range cols {
		clause, err := ColumnClause(d, c)
		if err != nil {
			return "", err
		}
		clauses[i] = clause
	}
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdent(t.Name) + " (" + strings.Join(clauses, ", ") + ")", nil
}

// AddColumn renders an ALTER TABLE ADD COLUMN statement.
func AddColumn(d Dialect, table string, c *schema.Column) (string, error) {
	clause, err := ColumnClause(d, c)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + d.QuoteIdent(table) + " ADD COLUMN " + clause, nil
}

// CreateIndex renders a CREATE INDEX statement for an index group. Primary
// groups are created as unique indexes.
func CreateIndex(d Dialect, table string, g *schema.IndexGroup) (string, error) {
	if len(g.Columns) == 0 {
		return "", fmt.Errorf("dialect: index %q has no columns", g.Name)
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	if g.Unique || g.Primary {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if d.IndexIfNotExists() {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.QuoteIdent(g.Name))
	b.WriteString(" ON ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	for i, c := range g.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c.Column))
		if c.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}
