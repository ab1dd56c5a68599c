// Package tabula is a lightweight multi-dialect relational access layer.
//
// Callers declare tables statically (see the schema, field and index
// packages), describe predicates with the query package, and run them
// through a table.Table bound to a dialect/sql.DB. The DB owns a bounded
// pool of physical connections and binds exactly one of them to every
// transaction.
//
// This package holds the error taxonomy shared by all layers:
//
//   - DuplicateKeyError: a unique or primary key constraint was violated.
//   - ConnectionError: the connection or database is unavailable; the
//     connection was discarded and the call backed off before returning.
//   - SchemaMigrationError: a column or index DDL statement failed.
//   - QueryError: any other database failure, wrapping the driver error.
//
// # Usage
//
//	db, err := sql.Open(dialect.SQLite, "file:app.db",
//	    sql.WithPoolSize(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	items := table.New[Item](db, itemSchema, itemCodec{})
//	if err := items.Initialize(ctx, nil); err != nil {
//	    log.Fatal(err)
//	}
//	_, err = items.Insert(ctx, nil, Item{Key: "a", Value: 1}, dialect.ConflictError)
//	if tabula.IsDuplicateKey(err) {
//	    // the key already exists
//	}
package tabula
