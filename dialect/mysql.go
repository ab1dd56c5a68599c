package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/tabula/schema"
)

// MySQL server error numbers.
const (
	mysqlDupKeyName      = 1061
	mysqlDupEntry        = 1062
	mysqlDupEntryWithKey = 1586
	mysqlServerShutdown  = 1053
	mysqlConnKilled      = 1927
)

// MySQLDialect is the dialect of MySQL and MariaDB servers.
type MySQLDialect struct{ Base }

// Name implements Dialect.
func (MySQLDialect) Name() string { return MySQL }

// Driver implements Dialect.
func (MySQLDialect) Driver() string { return "mysql" }

// QuoteIdent implements Dialect.
func (MySQLDialect) QuoteIdent(name string) string { return quoteIdent(name, '`') }

// QuoteString implements Dialect.
func (MySQLDialect) QuoteString(s string) string { return quoteString(s, true) }

// TypeName implements Dialect.
func (MySQLDialect) TypeName(c *schema.Column) string {
	switch c.Type {
	case schema.TypeFloat64:
		return "DOUBLE"
	case schema.TypeText:
		return "LONGTEXT"
	case schema.TypeJSON:
		return "JSON"
	case schema.TypeBytes:
		return "LONGBLOB"
	case schema.TypeTime:
		return "DATETIME(6)"
	default:
		return Base{}.TypeName(c)
	}
}

// AutoIncrement implements Dialect.
func (MySQLDialect) AutoIncrement(*schema.Column) string {
	return "NOT NULL AUTO_INCREMENT PRIMARY KEY"
}

// InsertSyntax implements Dialect. REPLACE is an upsert that binds the
// values of the row a second time in its UPDATE list.
func (MySQLDialect) InsertSyntax(policy ConflictPolicy, table string, columns, _ []string) (InsertSyntax, error) {
	switch policy {
	case ConflictIgnore:
		return InsertSyntax{Head: insertHead("INSERT IGNORE INTO", table, columns), Repeat: 1}, nil
	case ConflictReplace:
		set := make([]string, len(columns))
		for i, c := range columns {
			set[i] = c + " = ?"
		}
		return InsertSyntax{
			Head:   insertHead("INSERT INTO", table, columns),
			Tail:   " ON DUPLICATE KEY UPDATE " + strings.Join(set, ", "),
			Repeat: 2,
		}, nil
	default:
		return InsertSyntax{Head: insertHead("INSERT INTO", table, columns), Repeat: 1}, nil
	}
}

// ExtendedInsert implements Dialect.
func (MySQLDialect) ExtendedInsert() bool { return true }

// IndexIfNotExists implements Dialect.
func (MySQLDialect) IndexIfNotExists() bool { return false }

// DescribeColumns implements Dialect.
func (d MySQLDialect) DescribeColumns(table string) (string, []any, string) {
	return "SHOW COLUMNS FROM " + d.QuoteIdent(table), nil, "Field"
}

// LastInsertID implements Dialect.
func (MySQLDialect) LastInsertID() string { return "SELECT LAST_INSERT_ID()" }

// DeleteLimit implements Dialect.
func (MySQLDialect) DeleteLimit(table, where string, n int) (string, error) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s LIMIT %d", table, where, n), nil
}

// Paginate implements Dialect. MySQL has no OFFSET without LIMIT.
func (MySQLDialect) Paginate(limit, offset int) string {
	return limitOffset(limit, offset, "18446744073709551615")
}

// IsDuplicateKey implements Dialect.
func (MySQLDialect) IsDuplicateKey(err error) bool {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Number == mysqlDupEntry || e.Number == mysqlDupEntryWithKey
	}
	return isDuplicateKey(err)
}

// IsConnectionError implements Dialect.
func (MySQLDialect) IsConnectionError(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Number == mysqlServerShutdown || e.Number == mysqlConnKilled
	}
	return isConnectionError(err)
}

// IsIndexExists implements Dialect.
func (MySQLDialect) IsIndexExists(err error) bool {
	var e *mysql.MySQLError
	return errors.As(err, &e) && e.Number == mysqlDupKeyName
}
