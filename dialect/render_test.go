package dialect_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/query"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/schema/field"
)

var allDialects = []dialect.Dialect{
	dialect.Base{},
	dialect.MySQLDialect{},
	dialect.SQLiteDialect{},
	dialect.H2Dialect{},
	dialect.PostgresDialect{},
}

func itemsTable() *schema.Table {
	return schema.New("items").
		Fields(
			field.ID("id"),
			field.String("key").Unique(),
			field.Int("value").Index(),
			field.Text("note").Optional(),
			field.UUID("ref").Optional(),
			field.Int("score").StorageKey("pts").Optional(),
		).
		MustBuild()
}

func TestRender(t *testing.T) {
	d := dialect.SQLiteDialect{}
	tests := []struct {
		name  string
		node  query.Node
		want  string
		args  []any
		table bool
	}{
		{name: "always", node: query.Everything(), want: "1=1"},
		{name: "never", node: query.Nothing(), want: "1=0"},
		{name: "eq", node: query.EQ("key", "a"), want: `"key" = ?`, args: []any{"a"}},
		{name: "ne", node: query.NE("key", "a"), want: `"key" <> ?`, args: []any{"a"}},
		{name: "gt", node: query.GT("value", 1), want: `"value" > ?`, args: []any{1}},
		{name: "le", node: query.LE("value", 1), want: `"value" <= ?`, args: []any{1}},
		{name: "like", node: query.Like("key", "a%"), want: `"key" LIKE ?`, args: []any{"a%"}},
		{name: "is_null", node: query.IsNull("note"), want: `"note" IS NULL`},
		{name: "not_null", node: query.NotNull("note"), want: `"note" IS NOT NULL`},
		{
			name: "and",
			node: query.And(query.EQ("key", "a"), query.GT("value", 1)),
			want: `(("key" = ?) AND ("value" > ?))`,
			args: []any{"a", 1},
		},
		{
			name: "or_not",
			node: query.Or(query.EQ("key", "a"), query.Not(query.EQ("key", "b"))),
			want: `(("key" = ?) OR ((NOT ("key" = ?))))`,
			args: []any{"a", "b"},
		},
		{
			name: "between",
			node: query.Between("value", 1, 5),
			want: `(("value" >= ?) AND ("value" <= ?))`,
			args: []any{1, 5},
		},
		{name: "in", node: query.In("value", 1, 2, 3), want: `"value" IN (1, 2, 3)`},
		{name: "in_strings", node: query.In("key", "a", "it's"), want: `"key" IN ('a', 'it''s')`},
		{name: "in_empty", node: query.In("key"), want: "1=0"},
		{name: "raw", node: query.RawSQL("length(key) > ?", 3), want: "length(key) > ?", args: []any{3}},
		{
			name:  "table_serializes",
			node:  query.And(query.EQ("score", 7), query.In("value", 1, 2)),
			want:  `(("pts" = ?) AND ("value" IN (1, 2)))`,
			args:  []any{int64(7)},
			table: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tbl *schema.Table
			if tt.table {
				tbl = itemsTable()
			}
			got, args, err := dialect.Render(d, tbl, tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestRenderPlaceholderCount(t *testing.T) {
	nodes := []query.Node{
		query.Everything(),
		query.And(query.EQ("a", 1), query.Or(query.LT("b", 2), query.Not(query.Like("c", "x%")))),
		query.And(query.In("a", 1, 2), query.Between("b", 1, 9), query.IsNull("c")),
		query.Or(query.In("a"), query.RawSQL("d = ? OR e = ?", 1, 2)),
		query.Not(query.And()),
	}
	for _, d := range allDialects {
		for _, n := range nodes {
			got, args, err := dialect.Render(d, nil, n)
			require.NoError(t, err, "%s: %s", d.Name(), n)
			assert.Equal(t, len(args), strings.Count(got, "?"), "%s: %s", d.Name(), got)
		}
	}
}

func TestRenderEmptyInIsNever(t *testing.T) {
	for _, d := range allDialects {
		in, inArgs, err := dialect.Render(d, nil, query.In("key"))
		require.NoError(t, err)
		never, neverArgs, err := dialect.Render(d, nil, query.Nothing())
		require.NoError(t, err)
		assert.Equal(t, never, in, d.Name())
		assert.Equal(t, neverArgs, inArgs)
	}
}

func TestRenderQuoting(t *testing.T) {
	got, _, err := dialect.Render(dialect.MySQLDialect{}, nil, query.In("we`ird", `a\'b`))
	require.NoError(t, err)
	assert.Equal(t, "`we``ird` IN ('a\\\\''b')", got)

	got, _, err = dialect.Render(dialect.Base{}, nil, query.EQ(`we"ird`, 1))
	require.NoError(t, err)
	assert.Equal(t, `"we""ird" = ?`, got)

	got, _, err = dialect.Render(dialect.Base{}, nil, query.In("b", []byte{0xca, 0xfe}, true, nil))
	require.NoError(t, err)
	assert.Equal(t, `"b" IN (X'cafe', TRUE, NULL)`, got)

	got, _, err = dialect.Render(dialect.PostgresDialect{}, nil, query.In("b", []byte{0xca, 0xfe}))
	require.NoError(t, err)
	assert.Equal(t, `"b" IN ('\xcafe')`, got)
}

func TestRenderErrors(t *testing.T) {
	d := dialect.SQLiteDialect{}
	tests := []struct {
		name string
		node query.Node
	}{
		{"nil", nil},
		{"unknown_column", query.EQ("missing", 1)},
		{"bad_type", query.EQ("value", struct{}{})},
		{"raw_payload", query.RawNode(map[string]any{"$where": "x"})},
		{"raw_args", query.RawSQL("a = ? AND b = ?", 1)},
		{"bad_binary", query.Binary{Left: query.Everything(), Op: query.OpEQ, Right: query.Everything()}},
		{"bad_unary", query.Unary{Op: query.OpAnd, Operand: query.Everything()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := dialect.Render(d, itemsTable(), tt.node)
			require.Error(t, err)
		})
	}
	_, _, err := dialect.Render(d, nil, query.RawNode(map[string]any{"sql": "1=1", "hint": "x"}))
	require.ErrorIs(t, err, dialect.ErrUnsupported)
}

func TestLiteral(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		v    any
		want string
	}{
		{nil, "NULL"},
		{int64(-3), "-3"},
		{uint8(7), "7"},
		{1.5, "1.5"},
		{"o'k", "'o''k'"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "'2024-01-02 03:04:05'"},
		{id, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
	}
	for _, tt := range tests {
		got, err := dialect.Literal(dialect.Base{}, tt.v)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := dialect.Literal(dialect.Base{}, struct{}{})
	require.ErrorIs(t, err, dialect.ErrUnsupported)
}

func TestQuoteTime(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 120000000, time.FixedZone("CET", 3600))
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.Base{}, "'2024-01-02 02:04:05.12'"},
		{dialect.MySQLDialect{}, "'2024-01-02 02:04:05.12'"},
		{dialect.H2Dialect{}, "'2024-01-02 02:04:05.12'"},
		{dialect.SQLiteDialect{}, "'2024-01-02 02:04:05.12+00:00'"},
		{dialect.PostgresDialect{}, "'2024-01-02 02:04:05.12+00:00'"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			got, err := dialect.Literal(tt.d, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRebind(t *testing.T) {
	d := dialect.PostgresDialect{}
	assert.Equal(t, `SELECT * FROM "t" WHERE "a" = $1 AND "b" IN ('?') AND "c?" > $2`,
		d.Rebind(`SELECT * FROM "t" WHERE "a" = ? AND "b" IN ('?') AND "c?" > ?`))
	assert.Equal(t, "SELECT 1", d.Rebind("SELECT 1"))
	assert.Equal(t, "a = ?", dialect.SQLiteDialect{}.Rebind("a = ?"))
}

func TestNew(t *testing.T) {
	for _, name := range []string{dialect.ANSI, dialect.MySQL, dialect.SQLite, dialect.H2, dialect.Postgres} {
		d, err := dialect.New(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}
	d, err := dialect.New("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, d.Name())
	_, err = dialect.New("oracle")
	require.Error(t, err)
}
