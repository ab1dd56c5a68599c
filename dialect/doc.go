// Package dialect translates predicate trees and table descriptors into the
// SQL of one database product.
//
// # Supported Dialects
//
//   - Base: ANSI SQL, the default
//   - MySQLDialect: MySQL/MariaDB (go-sql-driver/mysql)
//   - SQLiteDialect: SQLite (modernc.org/sqlite)
//   - H2Dialect: H2, rendering only
//   - PostgresDialect: PostgreSQL (lib/pq)
//
// Each dialect is identified by a constant string:
//
//	dialect.ANSI     = "ansi"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//	dialect.H2       = "h2"
//	dialect.Postgres = "postgres"
//
// # Rendering
//
// A Dialect only answers product specific questions: how to quote, which
// type a column maps to, how an INSERT handles conflicts. The statements
// themselves are rendered by the functions of this package:
//
//	d, _ := dialect.New(dialect.SQLite)
//	where, args, err := dialect.Render(d, items, query.And(
//	    query.EQ("key", "a"),
//	    query.In("value", 1, 2),
//	))
//	// (("key" = ?) AND ("value" IN (1, 2))) [a]
//
//	ddl, err := dialect.CreateTable(d, items)
//	ins, repeat, err := dialect.Insert(d, "items", []string{"key", "value"}, nil, dialect.ConflictIgnore, 1)
//
// Statements always use ? placeholders; Dialect.Rebind rewrites them for
// drivers with another bind syntax.
//
// # Errors
//
// Translate maps driver errors to the error types of the tabula package so
// that callers can tell a conflicting write from an unavailable database.
package dialect
