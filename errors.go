package tabula

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("tabula: row not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns zero or multiple results.
	ErrNotSingular = errors.New("tabula: row not singular")

	// ErrDuplicateKey is matched by every DuplicateKeyError.
	ErrDuplicateKey = errors.New("tabula: duplicate key")

	// ErrConnection is matched by every ConnectionError.
	ErrConnection = errors.New("tabula: connection unavailable")
)

// NotFoundError represents an error when a row is not found.
type NotFoundError struct {
	table string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tabula: %s not found", e.table)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Table returns the table name.
func (e *NotFoundError) Table() string {
	return e.table
}

// NewNotFoundError returns a new NotFoundError for the given table.
func NewNotFoundError(table string) *NotFoundError {
	return &NotFoundError{table: table}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives zero or multiple results.
type NotSingularError struct {
	table string
	count int
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	return fmt.Sprintf("tabula: %s not singular (got %d results, expected 1)", e.table, e.count)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Count returns the number of rows the query produced.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError with the result count.
func NewNotSingularError(table string, count int) *NotSingularError {
	return &NotSingularError{table: table, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// DuplicateKeyError is returned when a write violates a unique or primary
// key constraint. It wraps the driver error it was classified from.
type DuplicateKeyError struct {
	Query string
	Err   error
}

// Error returns the error string.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("tabula: duplicate key: %v", e.Err)
}

// Unwrap returns the underlying driver error.
func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches DuplicateKeyError.
func (e *DuplicateKeyError) Is(err error) bool {
	return err == ErrDuplicateKey
}

// NewDuplicateKeyError returns a new DuplicateKeyError.
func NewDuplicateKeyError(query string, err error) *DuplicateKeyError {
	return &DuplicateKeyError{Query: query, Err: err}
}

// IsDuplicateKey returns true if the error is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateKeyError
	return errors.As(err, &e)
}

// ConnectionError reports a non-transient connection level failure. The
// connection that produced it has been discarded by the time callers see it.
type ConnectionError struct {
	Err error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tabula: connection failed: %v", e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ConnectionError.
func (e *ConnectionError) Is(err error) bool {
	return err == ErrConnection
}

// NewConnectionError returns a new ConnectionError.
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err}
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}

// SchemaMigrationError is returned when a column or index DDL statement
// fails during table initialization.
type SchemaMigrationError struct {
	Table  string
	Column string // empty for table and index level failures
	Stmt   string
	Err    error
}

// Error returns the error string.
func (e *SchemaMigrationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("tabula: migrating %s.%s: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("tabula: migrating %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *SchemaMigrationError) Unwrap() error {
	return e.Err
}

// NewSchemaMigrationError returns a new SchemaMigrationError.
func NewSchemaMigrationError(table, column, stmt string, err error) *SchemaMigrationError {
	return &SchemaMigrationError{Table: table, Column: column, Stmt: stmt, Err: err}
}

// IsSchemaMigrationError returns true if the error is a SchemaMigrationError.
func IsSchemaMigrationError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaMigrationError
	return errors.As(err, &e)
}

// QueryError wraps a generic database failure with the statement that
// produced it.
type QueryError struct {
	Table string // Table being queried, may be empty for raw statements
	Op    string // Operation (e.g., "find", "count", "insert")
	Query string
	Err   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	switch {
	case e.Table != "" && e.Op != "":
		return fmt.Sprintf("tabula: %s %s: %v", e.Op, e.Table, e.Err)
	case e.Op != "":
		return fmt.Sprintf("tabula: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("tabula: query: %v", e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op, query string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Query: query, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
// The error that triggered the rollback stays first in the chain.
type RollbackError struct {
	Err      error // Original error that triggered rollback
	Rollback error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Err, e.Rollback)
}

// Unwrap returns the original error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation,
// such as the per column failures of a best-effort migration.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "tabula: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("tabula: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
