package dialect

import (
	"fmt"
	"strings"

	"github.com/syssam/tabula/schema"
)

// H2Dialect is the dialect of the H2 database. No Go driver is bundled;
// statements are rendered for drivers registered by the application.
type H2Dialect struct{ Base }

// Name implements Dialect.
func (H2Dialect) Name() string { return H2 }

// AutoIncrement implements Dialect.
func (H2Dialect) AutoIncrement(*schema.Column) string { return "AUTO_INCREMENT PRIMARY KEY" }

// InsertSyntax implements Dialect. REPLACE is a MERGE keyed on the unique
// columns, or on the primary key when there are none.
func (H2Dialect) InsertSyntax(policy ConflictPolicy, table string, columns, unique []string) (InsertSyntax, error) {
	switch policy {
	case ConflictIgnore:
		// Requires MODE=MySQL.
		return InsertSyntax{Head: insertHead("INSERT IGNORE INTO", table, columns), Repeat: 1}, nil
	case ConflictReplace:
		head := insertHead("MERGE INTO", table, columns)
		if len(unique) > 0 {
			head += " KEY (" + strings.Join(unique, ", ") + ")"
		}
		return InsertSyntax{Head: head, Repeat: 1}, nil
	default:
		return InsertSyntax{Head: insertHead("INSERT INTO", table, columns), Repeat: 1}, nil
	}
}

// ExtendedInsert implements Dialect.
func (H2Dialect) ExtendedInsert() bool { return true }

// LastInsertID implements Dialect.
func (H2Dialect) LastInsertID() string { return "CALL IDENTITY()" }

// DeleteLimit implements Dialect.
func (H2Dialect) DeleteLimit(table, where string, n int) (string, error) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s LIMIT %d", table, where, n), nil
}

// Paginate implements Dialect.
func (H2Dialect) Paginate(limit, offset int) string { return limitOffset(limit, offset, "") }
