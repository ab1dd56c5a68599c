package dialect

import (
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/tabula/schema"
)

// SQLiteDialect is the dialect of SQLite database files, served by the
// modernc.org/sqlite driver.
type SQLiteDialect struct{ Base }

// Name implements Dialect.
func (SQLiteDialect) Name() string { return SQLite }

// Driver implements Dialect.
func (SQLiteDialect) Driver() string { return "sqlite" }

// QuoteBool implements Dialect.
func (SQLiteDialect) QuoteBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// QuoteTime implements Dialect. The layout is the one the driver writes
// with when opened with _time_format=sqlite, which Open adds to every
// SQLite data source.
func (SQLiteDialect) QuoteTime(t time.Time) string {
	return quoteString(t.UTC().Format("2006-01-02 15:04:05.999999999-07:00"), false)
}

// TypeName implements Dialect.
func (SQLiteDialect) TypeName(c *schema.Column) string {
	switch c.Type {
	case schema.TypeInt, schema.TypeInt64:
		// INTEGER PRIMARY KEY is the rowid alias.
		return "INTEGER"
	case schema.TypeFloat64:
		return "REAL"
	case schema.TypeText, schema.TypeJSON, schema.TypeUUID:
		return "TEXT"
	case schema.TypeTime:
		return "DATETIME"
	default:
		return Base{}.TypeName(c)
	}
}

// AutoIncrement implements Dialect.
func (SQLiteDialect) AutoIncrement(*schema.Column) string { return "PRIMARY KEY AUTOINCREMENT" }

// InsertSyntax implements Dialect.
func (SQLiteDialect) InsertSyntax(policy ConflictPolicy, table string, columns, _ []string) (InsertSyntax, error) {
	verb := "INSERT INTO"
	switch policy {
	case ConflictIgnore:
		verb = "INSERT OR IGNORE INTO"
	case ConflictReplace:
		verb = "INSERT OR REPLACE INTO"
	}
	return InsertSyntax{Head: insertHead(verb, table, columns), Repeat: 1}, nil
}

// ExtendedInsert implements Dialect.
func (SQLiteDialect) ExtendedInsert() bool { return true }

// DescribeColumns implements Dialect.
func (d SQLiteDialect) DescribeColumns(table string) (string, []any, string) {
	return "PRAGMA table_info(" + d.QuoteIdent(table) + ")", nil, "name"
}

// LastInsertID implements Dialect.
func (SQLiteDialect) LastInsertID() string { return "SELECT last_insert_rowid()" }

// DeleteLimit implements Dialect. SQLite builds without
// SQLITE_ENABLE_UPDATE_DELETE_LIMIT, so the rows are selected by rowid.
func (SQLiteDialect) DeleteLimit(table, where string, n int) (string, error) {
	return fmt.Sprintf("DELETE FROM %s WHERE rowid IN (SELECT rowid FROM %s WHERE %s LIMIT %d)", table, table, where, n), nil
}

// Paginate implements Dialect.
func (SQLiteDialect) Paginate(limit, offset int) string { return limitOffset(limit, offset, "-1") }

// IsDuplicateKey implements Dialect.
func (SQLiteDialect) IsDuplicateKey(err error) bool {
	var e *sqlite.Error
	if errors.As(err, &e) {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// Extended result codes disabled.
			return containsAny(e.Error(), "UNIQUE constraint failed", "PRIMARY KEY")
		}
		return false
	}
	return isDuplicateKey(err)
}

// IsConnectionError implements Dialect.
func (SQLiteDialect) IsConnectionError(err error) bool {
	var e *sqlite.Error
	if errors.As(err, &e) {
		switch e.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CORRUPT:
			return true
		}
		return false
	}
	return isConnectionError(err)
}
