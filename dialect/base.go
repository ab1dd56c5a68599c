package dialect

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/tabula/schema"
)

// Base is the ANSI SQL dialect. The product dialects embed it and
// override the rules that differ.
type Base struct{}

// Name implements Dialect.
func (Base) Name() string { return ANSI }

// Driver implements Dialect.
func (Base) Driver() string { return "" }

// QuoteIdent implements Dialect.
func (Base) QuoteIdent(name string) string { return quoteIdent(name, '"') }

// QuoteString implements Dialect.
func (Base) QuoteString(s string) string { return quoteString(s, false) }

// QuoteBytes implements Dialect.
func (Base) QuoteBytes(b []byte) string { return "X'" + hex.EncodeToString(b) + "'" }

// QuoteTime implements Dialect. Times are rendered in UTC without a zone.
func (Base) QuoteTime(t time.Time) string {
	return quoteString(t.UTC().Format("2006-01-02 15:04:05.999999999"), false)
}

// QuoteBool implements Dialect.
func (Base) QuoteBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// TypeName implements Dialect.
func (Base) TypeName(c *schema.Column) string {
	switch c.Type {
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeInt64:
		return "BIGINT"
	case schema.TypeFloat64:
		return "DOUBLE PRECISION"
	case schema.TypeString, schema.TypeEnum:
		return varchar(c)
	case schema.TypeText, schema.TypeJSON:
		return "CLOB"
	case schema.TypeBytes:
		return "BLOB"
	case schema.TypeUUID:
		return "CHAR(36)"
	case schema.TypeTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR(255)"
	}
}

// AutoIncrement implements Dialect.
func (Base) AutoIncrement(*schema.Column) string {
	return "GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
}

// InsertSyntax implements Dialect. Only ConflictError is expressible.
func (Base) InsertSyntax(policy ConflictPolicy, table string, columns, _ []string) (InsertSyntax, error) {
	if policy != ConflictError {
		return InsertSyntax{}, fmt.Errorf("%w: INSERT with conflict policy %s on %s", ErrUnsupported, policy, ANSI)
	}
	return InsertSyntax{Head: insertHead("INSERT INTO", table, columns), Repeat: 1}, nil
}

// ExtendedInsert implements Dialect.
func (Base) ExtendedInsert() bool { return false }

// IndexIfNotExists implements Dialect.
func (Base) IndexIfNotExists() bool { return true }

// DescribeColumns implements Dialect.
func (Base) DescribeColumns(table string) (string, []any, string) {
	return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ?", []any{table}, "COLUMN_NAME"
}

// LastInsertID implements Dialect.
func (Base) LastInsertID() string { return "" }

// DeleteLimit implements Dialect.
func (Base) DeleteLimit(string, string, int) (string, error) {
	return "", fmt.Errorf("%w: DELETE with LIMIT on %s", ErrUnsupported, ANSI)
}

// Paginate implements Dialect using the SQL:2008 OFFSET/FETCH clauses.
func (Base) Paginate(limit, offset int) string {
	var b strings.Builder
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d ROWS", offset)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " FETCH FIRST %d ROWS ONLY", limit)
	}
	return b.String()
}

// limitOffset renders LIMIT/OFFSET. unbounded is the LIMIT used when only
// an offset is set, or "" when the dialect accepts OFFSET alone.
func limitOffset(limit, offset int, unbounded string) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0 && unbounded != "":
		return fmt.Sprintf(" LIMIT %s OFFSET %d", unbounded, offset)
	case offset > 0:
		return fmt.Sprintf(" OFFSET %d", offset)
	}
	return ""
}

// Rebind implements Dialect.
func (Base) Rebind(query string) string { return query }

// IsDuplicateKey implements Dialect.
func (Base) IsDuplicateKey(err error) bool { return isDuplicateKey(err) }

// IsConnectionError implements Dialect.
func (Base) IsConnectionError(err error) bool { return isConnectionError(err) }

// IsIndexExists implements Dialect.
func (Base) IsIndexExists(error) bool { return false }

func quoteIdent(name string, q byte) string {
	var b strings.Builder
	b.Grow(len(name) + 2)
	b.WriteByte(q)
	for i := 0; i < len(name); i++ {
		if name[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(name[i])
	}
	b.WriteByte(q)
	return b.String()
}

// quoteString doubles single quotes. With backslash set, backslashes are
// escaped too, as MySQL treats them as escape characters by default.
func quoteString(s string, backslash bool) string {
	if backslash {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func varchar(c *schema.Column) string {
	size := c.Size
	if size <= 0 {
		size = 255
	}
	return "VARCHAR(" + strconv.Itoa(size) + ")"
}

func insertHead(verb, table string, columns []string) string {
	return verb + " " + table + " (" + strings.Join(columns, ", ") + ")"
}
