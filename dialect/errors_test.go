package dialect_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
)

type sqlStateErr struct{ state string }

func (e sqlStateErr) Error() string    { return "state " + e.state }
func (e sqlStateErr) SQLState() string { return e.state }

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		d    dialect.Dialect
		err  error
		want bool
	}{
		{"mysql_1062", dialect.MySQLDialect{}, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'key'"}, true},
		{"mysql_wrapped", dialect.MySQLDialect{}, fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062}), true},
		{"mysql_other", dialect.MySQLDialect{}, &mysql.MySQLError{Number: 1048, Message: "Column 'key' cannot be null"}, false},
		{"pq_23505", dialect.PostgresDialect{}, &pq.Error{Code: "23505"}, true},
		{"pq_wrapped", dialect.PostgresDialect{}, fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), true},
		{"pq_other", dialect.PostgresDialect{}, &pq.Error{Code: "23503"}, false},
		{"sqlstate", dialect.Base{}, sqlStateErr{"23505"}, true},
		{"sqlstate_other", dialect.Base{}, sqlStateErr{"42000"}, false},
		{"message_h2", dialect.H2Dialect{}, errors.New(`Unique index or primary key violation: "PUBLIC.ITEMS_KEY_KEY"`), true},
		{"message_sqlite", dialect.SQLiteDialect{}, errors.New("UNIQUE constraint failed: items.key"), true},
		{"plain", dialect.Base{}, errors.New("syntax error"), false},
		{"nil", dialect.Base{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.IsDuplicateKey(tt.err))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		d    dialect.Dialect
		err  error
		want bool
	}{
		{"bad_conn", dialect.Base{}, driver.ErrBadConn, true},
		{"wrapped_bad_conn", dialect.SQLiteDialect{}, fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"mysql_invalid_conn", dialect.MySQLDialect{}, fmt.Errorf("exec: %w", mysql.ErrInvalidConn), true},
		{"mysql_shutdown", dialect.MySQLDialect{}, &mysql.MySQLError{Number: 1053}, true},
		{"pq_08006", dialect.PostgresDialect{}, &pq.Error{Code: "08006"}, true},
		{"pq_57P01", dialect.PostgresDialect{}, &pq.Error{Code: "57P01"}, true},
		{"pq_23505", dialect.PostgresDialect{}, &pq.Error{Code: "23505"}, false},
		{"sqlstate_08", dialect.H2Dialect{}, sqlStateErr{"08001"}, true},
		{"message", dialect.Base{}, errors.New("dial tcp: connection refused"), true},
		{"plain", dialect.Base{}, errors.New("syntax error"), false},
		{"net_op", dialect.MySQLDialect{}, &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, true},
		{"net_timeout", dialect.MySQLDialect{}, &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.IsConnectionError(tt.err))
		})
	}
}

func TestIsConnectionErrorContext(t *testing.T) {
	dialects := []dialect.Dialect{
		dialect.Base{},
		dialect.SQLiteDialect{},
		dialect.MySQLDialect{},
		dialect.PostgresDialect{},
		dialect.H2Dialect{},
	}
	for _, d := range dialects {
		t.Run(d.Name(), func(t *testing.T) {
			assert.False(t, d.IsConnectionError(fmt.Errorf("query: %w", context.DeadlineExceeded)))
			assert.False(t, d.IsConnectionError(fmt.Errorf("query: %w", context.Canceled)))
			err := dialect.Translate(d, "SELECT 1", fmt.Errorf("query: %w", context.DeadlineExceeded))
			assert.False(t, tabula.IsConnectionError(err))
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestIsIndexExists(t *testing.T) {
	d := dialect.MySQLDialect{}
	assert.True(t, d.IsIndexExists(&mysql.MySQLError{Number: 1061}))
	assert.False(t, d.IsIndexExists(&mysql.MySQLError{Number: 1062}))
	assert.False(t, dialect.SQLiteDialect{}.IsIndexExists(errors.New("index already exists")))
}

func TestTranslate(t *testing.T) {
	d := dialect.MySQLDialect{}
	require.NoError(t, dialect.Translate(d, "q", nil))

	dup := &mysql.MySQLError{Number: 1062}
	err := dialect.Translate(d, "INSERT", dup)
	require.True(t, tabula.IsDuplicateKey(err))
	var de *tabula.DuplicateKeyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INSERT", de.Query)
	require.ErrorIs(t, err, dup)
	assert.Same(t, err, dialect.Translate(d, "INSERT", err), "already translated errors pass through")

	err = dialect.Translate(d, "SELECT", mysql.ErrInvalidConn)
	require.True(t, tabula.IsConnectionError(err))
	require.ErrorIs(t, err, mysql.ErrInvalidConn)

	plain := errors.New("syntax error")
	assert.Same(t, plain, dialect.Translate(d, "SELECT", plain))
}
