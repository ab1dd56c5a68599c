package dialect

import (
	"errors"
	"fmt"
	"time"

	"github.com/syssam/tabula/schema"
)

// Dialect names.
const (
	ANSI     = "ansi"
	MySQL    = "mysql"
	SQLite   = "sqlite"
	H2       = "h2"
	Postgres = "postgres"
)

// ErrUnsupported is returned for statements a dialect cannot express.
var ErrUnsupported = errors.New("dialect: unsupported")

// ConflictPolicy is the behavior of an INSERT on a unique key conflict.
type ConflictPolicy uint8

// Conflict policies.
const (
	// ConflictError fails the statement.
	ConflictError ConflictPolicy = iota
	// ConflictIgnore keeps the existing row.
	ConflictIgnore
	// ConflictReplace overwrites the existing row.
	ConflictReplace
)

// String returns the policy name.
func (p ConflictPolicy) String() string {
	switch p {
	case ConflictError:
		return "ERROR"
	case ConflictIgnore:
		return "IGNORE"
	case ConflictReplace:
		return "REPLACE"
	default:
		return fmt.Sprintf("ConflictPolicy(%d)", p)
	}
}

// InsertSyntax is the shape of an INSERT statement for one conflict policy.
type InsertSyntax struct {
	// Head precedes the VALUES keyword, e.g. INSERT OR IGNORE INTO "t" ("a").
	Head string
	// Tail follows the value lists.
	Tail string
	// Repeat is the number of times the values of a row are bound: once
	// by the VALUES list and Repeat-1 more times by Tail.
	Repeat int
}

// Dialect holds the rules translating tables and predicates into the SQL
// of one database product. Statement rendering is done by the functions of
// this package, which consult a Dialect for every product specific rule.
type Dialect interface {
	// Name returns the dialect name.
	Name() string
	// Driver returns the database/sql driver name, or "" if none is bundled.
	Driver() string

	// QuoteIdent quotes an identifier, doubling embedded quote characters.
	QuoteIdent(name string) string
	// QuoteString quotes a string literal.
	QuoteString(s string) string
	// QuoteBytes renders a binary literal.
	QuoteBytes(b []byte) string
	// QuoteBool renders a boolean literal.
	QuoteBool(b bool) string
	// QuoteTime renders a time literal in the text form the driver binds
	// time parameters with, so inline and bound values compare equal.
	QuoteTime(t time.Time) string

	// TypeName returns the SQL type of a column.
	TypeName(c *schema.Column) string
	// AutoIncrement returns the clause following the type of an auto
	// increment column.
	AutoIncrement(c *schema.Column) string

	// InsertSyntax returns the statement shape for a conflict policy. The
	// table and columns are already quoted; unique holds the quoted columns
	// identifying a row.
	InsertSyntax(policy ConflictPolicy, table string, columns, unique []string) (InsertSyntax, error)
	// ExtendedInsert reports whether one INSERT may carry many value lists.
	ExtendedInsert() bool
	// IndexIfNotExists reports whether CREATE INDEX accepts IF NOT EXISTS.
	IndexIfNotExists() bool
	// DescribeColumns returns the query listing the live columns of a
	// table and the name of the result column holding the column name.
	DescribeColumns(table string) (query string, args []any, nameColumn string)
	// LastInsertID returns the query reading the key generated by the last
	// insert on the connection, or "" if the driver result reports it.
	LastInsertID() string
	// DeleteLimit renders a DELETE removing at most n matching rows. The
	// table is quoted and where is a rendered condition.
	DeleteLimit(table, where string, n int) (string, error)
	// Paginate renders the row limiting clause of a SELECT. A limit of
	// zero or less means no limit; it returns "" when neither is set.
	Paginate(limit, offset int) string
	// Rebind rewrites ? placeholders into the driver's bind syntax.
	Rebind(query string) string

	// IsDuplicateKey reports whether err is a unique or primary key
	// violation.
	IsDuplicateKey(err error) bool
	// IsConnectionError reports whether err means the connection is no
	// longer usable.
	IsConnectionError(err error) bool
	// IsIndexExists reports whether err means the index being created
	// already exists.
	IsIndexExists(err error) bool
}

// New returns the dialect with the given name.
func New(name string) (Dialect, error) {
	switch name {
	case ANSI, "":
		return Base{}, nil
	case MySQL:
		return MySQLDialect{}, nil
	case SQLite, "sqlite3":
		return SQLiteDialect{}, nil
	case H2:
		return H2Dialect{}, nil
	case Postgres, "postgresql", "pgx":
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

var (
	_ Dialect = Base{}
	_ Dialect = MySQLDialect{}
	_ Dialect = SQLiteDialect{}
	_ Dialect = H2Dialect{}
	_ Dialect = PostgresDialect{}
)
