package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/syssam/tabula"
)

// sqlStateError is implemented by drivers reporting SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// SQLSTATE codes and classes.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateConnectionClass = "08"
)

// Translate maps a driver error to the error taxonomy of tabula: key
// violations become a DuplicateKeyError and lost connections a
// ConnectionError. Other errors are returned unchanged.
func Translate(d Dialect, query string, err error) error {
	if err == nil || errors.Is(err, tabula.ErrDuplicateKey) || errors.Is(err, tabula.ErrConnection) {
		return err
	}
	switch {
	case d.IsDuplicateKey(err):
		return tabula.NewDuplicateKeyError(query, err)
	case d.IsConnectionError(err):
		return tabula.NewConnectionError(err)
	}
	return err
}

// isDuplicateKey classifies drivers without a dedicated error type by
// SQLSTATE and, failing that, by message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok {
		return e.SQLState() == sqlStateUniqueViolation
	}
	return containsAny(strings.ToLower(err.Error()),
		"constraint violation",
		"constraint failed",
		"key violation",
		"duplicate entry",
		"violates unique constraint",
	)
}

// isConnectionError reports lost connections. Expired deadlines and
// cancellations belong to the caller and are never connection failures.
func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return !ne.Timeout()
	}
	if e, ok := asError[sqlStateError](err); ok {
		return strings.HasPrefix(e.SQLState(), sqlStateConnectionClass)
	}
	return containsAny(strings.ToLower(err.Error()),
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
	)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
