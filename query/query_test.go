package query_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/query"
)

type item struct{}

var (
	key   = query.Col[item, string]("key")
	value = query.Col[item, int]("value")
)

func TestNodeString(t *testing.T) {
	tests := []struct {
		P query.Node
		S string
	}{
		{
			P: query.And(key.EQ("a8m"), query.In("org", "fb", "ent")),
			S: `(key == "a8m" && org in ["fb","ent"])`,
		},
		{
			P: query.Or(query.Not(key.EQ("mashraki")), value.In(1, 2, 3)),
			S: `(!(key == "mashraki") || value in [1,2,3])`,
		},
		{
			P: query.Not(query.LT("score", 32.23)),
			S: `!(score < 32.23)`,
		},
		{
			P: query.And(key.IsNull(), value.NotNull()),
			S: `(key == nil && value != nil)`,
		},
		{
			P: value.Between(1, 5),
			S: `(value >= 1 && value <= 5)`,
		},
		{
			P: key.Like("a%"),
			S: `key like "a%"`,
		},
		{
			P: query.Everything(),
			S: `true`,
		},
		{
			P: query.Nothing(),
			S: `false`,
		},
		{
			P: query.RawNode(map[string]any{"b": 2, "a": 1}),
			S: `raw(a: 1, b: 2)`,
		},
	}
	for i := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			assert.Equal(t, tests[i].S, tests[i].P.String())
		})
	}
}

func TestAndOrFolding(t *testing.T) {
	assert.Equal(t, query.Always{}, query.And())
	assert.Equal(t, query.Never{}, query.Or())

	single := key.EQ("a")
	assert.Equal(t, single, query.And(single))
	assert.Equal(t, single, query.Or(single))

	n := query.And(key.EQ("a"), value.GT(1), value.LT(9))
	b, ok := n.(query.Binary)
	require.True(t, ok)
	assert.Equal(t, query.OpAnd, b.Op)
	assert.Equal(t, value.LT(9), b.Right)
	left, ok := b.Left.(query.Binary)
	require.True(t, ok)
	assert.Equal(t, key.EQ("a"), left.Left)
}

func TestWhere(t *testing.T) {
	p := query.Where(func(b query.Builder[item]) query.Node {
		return b.Or(
			b.Eq(key, "a"),
			b.And(b.Ge(value, 2), b.Not(b.In(value, 3, 4))),
		)
	})
	assert.Equal(t, `(key == "a" || (value >= 2 && !(value in [3,4])))`, p.String())

	assert.Equal(t, query.Always{}, query.Where(func(query.Builder[item]) query.Node { return nil }))

	p = query.Where(func(b query.Builder[item]) query.Node {
		return b.And(b.Ne(key, "x"), b.Le(value, 3), b.Lt(value, 2), b.Gt(value, 0), b.Like(key, "x%"))
	})
	assert.Equal(t, `((((key != "x" && value <= 3) && value < 2) && value > 0) && key like "x%")`, p.String())
}

func TestImmutability(t *testing.T) {
	vs := []any{1, 2}
	n := query.In("value", vs...)
	vs[0] = 99
	assert.Equal(t, []any{1, 2}, n.(query.InSet).Values)

	m := map[string]any{"sql": "1=1"}
	r := query.RawNode(m)
	m["sql"] = "1=0"
	assert.Equal(t, "1=1", r.(query.Raw).Values["sql"])
}

func TestOrder(t *testing.T) {
	assert.Equal(t, query.Order{Column: "key"}, key.Asc())
	assert.Equal(t, query.Order{Column: "value", Desc: true}, value.Desc())
}

func TestOpSQL(t *testing.T) {
	tests := map[query.Op]string{
		query.OpAnd:     "AND",
		query.OpOr:      "OR",
		query.OpNot:     "NOT",
		query.OpLike:    "LIKE",
		query.OpEQ:      "=",
		query.OpNE:      "<>",
		query.OpGT:      ">",
		query.OpLT:      "<",
		query.OpGE:      ">=",
		query.OpLE:      "<=",
		query.OpIsNull:  "IS NULL",
		query.OpNotNull: "IS NOT NULL",
	}
	for op, want := range tests {
		assert.Equal(t, want, op.SQL())
	}
	assert.True(t, query.OpIsNull.Unary())
	assert.False(t, query.OpEQ.Unary())
}
