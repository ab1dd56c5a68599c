package sql

import (
	"database/sql"
	"errors"
)

// Row maps result column names to wire values.
type Row = map[string]any

// UpdateCountColumn is the column of the synthetic row returned for write
// statements.
const UpdateCountColumn = "update_count"

// Result is the outcome of a statement. For reads Rows holds the result
// set and Count its length; for writes Rows holds a single synthetic row
// exposing the update count.
type Result struct {
	Rows  []Row
	Count int64
	// LastInsertID is the key generated by the last insert, if any.
	LastInsertID int64
}

func writeResult(n int64) Result {
	return Result{Rows: []Row{{UpdateCountColumn: n}}, Count: n}
}

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

var _ ColumnScanner = (*sql.Rows)(nil)

// ScanRows reads all rows and closes rs. Byte slices are copied, as
// drivers may reuse them between rows.
func ScanRows(rs ColumnScanner) (rows []Row, err error) {
	defer func() { err = errors.Join(err, rs.Close()) }()
	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	for rs.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[c] = values[i]
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}
