package dialect_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
)

func TestInsert(t *testing.T) {
	cols := []string{"key", "value"}
	uniq := []string{"key"}
	tests := []struct {
		name   string
		d      dialect.Dialect
		policy dialect.ConflictPolicy
		rows   int
		want   string
		repeat int
	}{
		{"ansi_error", dialect.Base{}, dialect.ConflictError, 1, `INSERT INTO "items" ("key", "value") VALUES (?, ?)`, 1},
		{"sqlite_batch", dialect.SQLiteDialect{}, dialect.ConflictError, 2, `INSERT INTO "items" ("key", "value") VALUES (?, ?), (?, ?)`, 1},
		{"sqlite_ignore", dialect.SQLiteDialect{}, dialect.ConflictIgnore, 1, `INSERT OR IGNORE INTO "items" ("key", "value") VALUES (?, ?)`, 1},
		{"sqlite_replace", dialect.SQLiteDialect{}, dialect.ConflictReplace, 1, `INSERT OR REPLACE INTO "items" ("key", "value") VALUES (?, ?)`, 1},
		{"mysql_ignore", dialect.MySQLDialect{}, dialect.ConflictIgnore, 3, "INSERT IGNORE INTO `items` (`key`, `value`) VALUES (?, ?), (?, ?), (?, ?)", 1},
		{
			"mysql_replace", dialect.MySQLDialect{}, dialect.ConflictReplace, 1,
			"INSERT INTO `items` (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `key` = ?, `value` = ?", 2,
		},
		{"h2_ignore", dialect.H2Dialect{}, dialect.ConflictIgnore, 1, `INSERT IGNORE INTO "items" ("key", "value") VALUES (?, ?)`, 1},
		{"h2_replace", dialect.H2Dialect{}, dialect.ConflictReplace, 1, `MERGE INTO "items" ("key", "value") KEY ("key") VALUES (?, ?)`, 1},
		{"pg_ignore", dialect.PostgresDialect{}, dialect.ConflictIgnore, 1, `INSERT INTO "items" ("key", "value") VALUES (?, ?) ON CONFLICT DO NOTHING`, 1},
		{
			"pg_replace", dialect.PostgresDialect{}, dialect.ConflictReplace, 1,
			`INSERT INTO "items" ("key", "value") VALUES (?, ?) ON CONFLICT ("key") DO UPDATE SET "key" = EXCLUDED."key", "value" = EXCLUDED."value"`, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repeat, err := dialect.Insert(tt.d, "items", cols, uniq, tt.policy, tt.rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.repeat, repeat)
			assert.Equal(t, tt.rows*len(cols)*tt.repeat, strings.Count(got, "?"))
		})
	}
}

func TestInsertUnsupported(t *testing.T) {
	cols := []string{"key", "value"}
	_, _, err := dialect.Insert(dialect.Base{}, "items", cols, nil, dialect.ConflictIgnore, 1)
	require.ErrorIs(t, err, dialect.ErrUnsupported)
	_, _, err = dialect.Insert(dialect.Base{}, "items", cols, nil, dialect.ConflictError, 2)
	require.ErrorIs(t, err, dialect.ErrUnsupported, "ANSI has no extended insert")
	_, _, err = dialect.Insert(dialect.MySQLDialect{}, "items", cols, nil, dialect.ConflictReplace, 2)
	require.ErrorIs(t, err, dialect.ErrUnsupported, "repeated values cannot be batched")
	_, _, err = dialect.Insert(dialect.PostgresDialect{}, "items", cols, nil, dialect.ConflictReplace, 1)
	require.ErrorIs(t, err, dialect.ErrUnsupported)
	_, _, err = dialect.Insert(dialect.SQLiteDialect{}, "items", nil, nil, dialect.ConflictError, 1)
	require.Error(t, err)
	_, _, err = dialect.Insert(dialect.SQLiteDialect{}, "items", cols, nil, dialect.ConflictError, 0)
	require.Error(t, err)
}

func TestBatchRows(t *testing.T) {
	cols := []string{"key", "value"}
	n, err := dialect.BatchRows(dialect.SQLiteDialect{}, "items", cols, nil, dialect.ConflictError)
	require.NoError(t, err)
	assert.Equal(t, dialect.MaxBatchRows, n)

	n, err = dialect.BatchRows(dialect.MySQLDialect{}, "items", cols, nil, dialect.ConflictReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = dialect.BatchRows(dialect.Base{}, "items", cols, nil, dialect.ConflictError)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = dialect.BatchRows(dialect.Base{}, "items", cols, nil, dialect.ConflictReplace)
	require.ErrorIs(t, err, dialect.ErrUnsupported)
}

func TestInsertArgs(t *testing.T) {
	row := []any{"a", 1}
	assert.Equal(t, row, dialect.InsertArgs(row, 1))
	assert.Equal(t, []any{"a", 1, "a", 1}, dialect.InsertArgs(row, 2))
}

func TestDeleteLimit(t *testing.T) {
	got, err := dialect.SQLiteDialect{}.DeleteLimit(`"items"`, `"value" > ?`, 2)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE rowid IN (SELECT rowid FROM "items" WHERE "value" > ? LIMIT 2)`, got)

	got, err = dialect.MySQLDialect{}.DeleteLimit("`items`", "1=1", 5)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `items` WHERE 1=1 LIMIT 5", got)

	got, err = dialect.PostgresDialect{}.DeleteLimit(`"items"`, "1=1", 5)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "items" WHERE ctid IN (SELECT ctid FROM "items" WHERE 1=1 LIMIT 5)`, got)

	_, err = dialect.Base{}.DeleteLimit(`"items"`, "1=1", 5)
	require.ErrorIs(t, err, dialect.ErrUnsupported)
}

func TestConflictPolicyString(t *testing.T) {
	assert.Equal(t, "ERROR", dialect.ConflictError.String())
	assert.Equal(t, "IGNORE", dialect.ConflictIgnore.String())
	assert.Equal(t, "REPLACE", dialect.ConflictReplace.String())
	assert.Equal(t, "ConflictPolicy(9)", dialect.ConflictPolicy(9).String())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		d             dialect.Dialect
		limit, offset int
		want          string
	}{
		{dialect.SQLiteDialect{}, 0, 0, ""},
		{dialect.SQLiteDialect{}, 10, 0, " LIMIT 10"},
		{dialect.SQLiteDialect{}, 10, 20, " LIMIT 10 OFFSET 20"},
		{dialect.SQLiteDialect{}, 0, 20, " LIMIT -1 OFFSET 20"},
		{dialect.MySQLDialect{}, 0, 5, " LIMIT 18446744073709551615 OFFSET 5"},
		{dialect.PostgresDialect{}, 0, 5, " OFFSET 5"},
		{dialect.H2Dialect{}, 3, 0, " LIMIT 3"},
		{dialect.Base{}, 3, 0, " FETCH FIRST 3 ROWS ONLY"},
		{dialect.Base{}, 3, 6, " OFFSET 6 ROWS FETCH FIRST 3 ROWS ONLY"},
		{dialect.Base{}, 0, 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.d.Paginate(tt.limit, tt.offset), "%s limit=%d offset=%d", tt.d.Name(), tt.limit, tt.offset)
	}
}
