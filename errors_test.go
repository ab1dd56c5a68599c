package tabula_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := tabula.NewNotFoundError("users")
		assert.Equal(t, "tabula: users not found", err.Error())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := tabula.NewNotFoundError("users")
		assert.True(t, tabula.IsNotFound(err))
		assert.True(t, errors.Is(err, tabula.ErrNotFound))
		assert.True(t, tabula.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, tabula.IsNotFound(tabula.ErrNotFound))
		assert.False(t, tabula.IsNotFound(errors.New("other error")))
		assert.False(t, tabula.IsNotFound(nil))
	})
}

func TestNotSingularError(t *testing.T) {
	err := tabula.NewNotSingularError("users", 2)
	assert.Equal(t, "tabula: users not singular (got 2 results, expected 1)", err.Error())
	assert.Equal(t, 2, err.Count())
	assert.True(t, tabula.IsNotSingular(fmt.Errorf("wrapper: %w", err)))
	assert.True(t, errors.Is(err, tabula.ErrNotSingular))
	assert.False(t, tabula.IsNotSingular(nil))
}

func TestDuplicateKeyError(t *testing.T) {
	driverErr := errors.New("UNIQUE constraint failed: items.key")
	err := tabula.NewDuplicateKeyError("INSERT INTO items", driverErr)
	assert.True(t, tabula.IsDuplicateKey(err))
	assert.True(t, errors.Is(err, tabula.ErrDuplicateKey))
	assert.True(t, errors.Is(err, driverErr))
	assert.Contains(t, err.Error(), "duplicate key")
	assert.False(t, tabula.IsDuplicateKey(driverErr))
	assert.False(t, tabula.IsConnectionError(err))
}

func TestConnectionError(t *testing.T) {
	driverErr := errors.New("broken pipe")
	err := fmt.Errorf("exec: %w", tabula.NewConnectionError(driverErr))
	assert.True(t, tabula.IsConnectionError(err))
	assert.True(t, errors.Is(err, tabula.ErrConnection))
	assert.True(t, errors.Is(err, driverErr))
	assert.False(t, tabula.IsConnectionError(nil))
}

func TestSchemaMigrationError(t *testing.T) {
	err := tabula.NewSchemaMigrationError("items", "extra", "ALTER TABLE", errors.New("boom"))
	assert.Equal(t, "tabula: migrating items.extra: boom", err.Error())
	assert.True(t, tabula.IsSchemaMigrationError(err))

	err = tabula.NewSchemaMigrationError("items", "", "CREATE INDEX", errors.New("boom"))
	assert.Equal(t, "tabula: migrating items: boom", err.Error())
}

func TestQueryError(t *testing.T) {
	cause := errors.New("syntax error")
	tests := []struct {
		err  *tabula.QueryError
		want string
	}{
		{tabula.NewQueryError("items", "find", "SELECT", cause), "tabula: find items: syntax error"},
		{tabula.NewQueryError("", "exec", "SELECT", cause), "tabula: exec: syntax error"},
		{tabula.NewQueryError("", "", "SELECT", cause), "tabula: query: syntax error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
		assert.True(t, tabula.IsQueryError(tt.err))
		assert.ErrorIs(t, tt.err, cause)
	}
}

func TestRollbackError(t *testing.T) {
	orig := tabula.NewDuplicateKeyError("INSERT", errors.New("dup"))
	err := &tabula.RollbackError{Err: orig, Rollback: errors.New("conn closed")}
	assert.True(t, tabula.IsDuplicateKey(err))
	assert.Contains(t, err.Error(), "rollback failed: conn closed")
}

func TestAggregateError(t *testing.T) {
	require.NoError(t, tabula.NewAggregateError(nil, nil))

	single := errors.New("one")
	assert.Equal(t, single, tabula.NewAggregateError(nil, single))

	a, b := errors.New("a"), errors.New("b")
	err := tabula.NewAggregateError(a, nil, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Contains(t, err.Error(), "[2] b")
}
