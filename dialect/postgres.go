package dialect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/omeid/pgerror"

	"github.com/syssam/tabula/schema"
)

// PostgresDialect is the dialect of PostgreSQL servers, served by the
// lib/pq driver.
type PostgresDialect struct{ Base }

// Name implements Dialect.
func (PostgresDialect) Name() string { return Postgres }

// Driver implements Dialect.
func (PostgresDialect) Driver() string { return "postgres" }

// QuoteBytes implements Dialect.
func (PostgresDialect) QuoteBytes(b []byte) string { return `'\x` + hex.EncodeToString(b) + "'" }

// QuoteTime implements Dialect. The offset keeps TIMESTAMPTZ literals
// independent of the session time zone.
func (PostgresDialect) QuoteTime(t time.Time) string {
	return quoteString(t.UTC().Format("2006-01-02 15:04:05.999999-07:00"), false)
}

// TypeName implements Dialect.
func (PostgresDialect) TypeName(c *schema.Column) string {
	switch c.Type {
	case schema.TypeInt:
		if c.AutoIncrement {
			return "SERIAL"
		}
	case schema.TypeInt64:
		if c.AutoIncrement {
			return "BIGSERIAL"
		}
	case schema.TypeText:
		return "TEXT"
	case schema.TypeJSON:
		return "JSONB"
	case schema.TypeBytes:
		return "BYTEA"
	case schema.TypeUUID:
		return "UUID"
	case schema.TypeTime:
		return "TIMESTAMPTZ"
	}
	return Base{}.TypeName(c)
}

// AutoIncrement implements Dialect.
func (PostgresDialect) AutoIncrement(*schema.Column) string { return "PRIMARY KEY" }

// InsertSyntax implements Dialect.
func (PostgresDialect) InsertSyntax(policy ConflictPolicy, table string, columns, unique []string) (InsertSyntax, error) {
	s := InsertSyntax{Head: insertHead("INSERT INTO", table, columns), Repeat: 1}
	switch policy {
	case ConflictIgnore:
		s.Tail = " ON CONFLICT DO NOTHING"
	case ConflictReplace:
		if len(unique) == 0 {
			return InsertSyntax{}, fmt.Errorf("%w: REPLACE on %s without a unique key", ErrUnsupported, table)
		}
		set := make([]string, len(columns))
		for i, c := range columns {
			set[i] = c + " = EXCLUDED." + c
		}
		s.Tail = " ON CONFLICT (" + strings.Join(unique, ", ") + ") DO UPDATE SET " + strings.Join(set, ", ")
	}
	return s, nil
}

// ExtendedInsert implements Dialect.
func (PostgresDialect) ExtendedInsert() bool { return true }

// DescribeColumns implements Dialect.
func (PostgresDialect) DescribeColumns(table string) (string, []any, string) {
	return "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ?",
		[]any{table}, "column_name"
}

// LastInsertID implements Dialect.
func (PostgresDialect) LastInsertID() string { return "SELECT lastval()" }

// DeleteLimit implements Dialect.
func (PostgresDialect) DeleteLimit(table, where string, n int) (string, error) {
	return fmt.Sprintf("DELETE FROM %s WHERE ctid IN (SELECT ctid FROM %s WHERE %s LIMIT %d)", table, table, where, n), nil
}

// Paginate implements Dialect.
func (PostgresDialect) Paginate(limit, offset int) string { return limitOffset(limit, offset, "") }

// Rebind implements Dialect. Placeholders inside quoted literals and
// identifiers are left untouched.
func (PostgresDialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// IsDuplicateKey implements Dialect.
func (PostgresDialect) IsDuplicateKey(err error) bool {
	var e *pq.Error
	if errors.As(err, &e) {
		return pgerror.UniqueViolation(e) != nil
	}
	return isDuplicateKey(err)
}

// IsConnectionError implements Dialect.
func (PostgresDialect) IsConnectionError(err error) bool {
	var e *pq.Error
	if errors.As(err, &e) {
		return pgerror.ConnectionException(e) != nil ||
			pgerror.ConnectionDoesNotExist(e) != nil ||
			pgerror.ConnectionFailure(e) != nil ||
			pgerror.SQLclientUnableToEstablishSQLconnection(e) != nil ||
			pgerror.SQLserverRejectedEstablishmentOfSQLconnection(e) != nil ||
			pgerror.AdminShutdown(e) != nil ||
			pgerror.CrashShutdown(e) != nil
	}
	return isConnectionError(err)
}
