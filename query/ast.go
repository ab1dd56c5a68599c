// Package query provides the predicate tree used to describe WHERE clauses.
//
// A tree is built once, is never mutated afterwards, and can be rendered by
// any dialect. Trees are usually composed with typed column handles:
//
//	var (
//	    Key   = query.Col[Item, string]("key")
//	    Value = query.Col[Item, int]("value")
//	)
//
//	p := query.And(Key.EQ("a"), Value.GT(1))
//
// or through the callback DSL bound to one entity type:
//
//	p := query.Where(func(b query.Builder[Item]) query.Node {
//	    return b.Or(b.Eq(Key, "a"), b.Between(Value, 1, 5))
//	})
package query

import (
	"maps"
	"slices"
)

// Op is a predicate operator.
type Op int

// Predicate operators.
const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpEQ
	OpNE
	OpGT
	OpLT
	OpGE
	OpLE
	OpLike
	OpIsNull
	OpNotNull
)

var opSymbols = [...]string{
	OpAnd:     "AND",
	OpOr:      "OR",
	OpNot:     "NOT",
	OpEQ:      "=",
	OpNE:      "<>",
	OpGT:      ">",
	OpLT:      "<",
	OpGE:      ">=",
	OpLE:      "<=",
	OpLike:    "LIKE",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
}

// SQL returns the SQL symbol of the operator.
func (o Op) SQL() string {
	if o < 0 || int(o) >= len(opSymbols) {
		return "?op?"
	}
	return opSymbols[o]
}

// Unary reports whether the comparison operator takes no literal.
func (o Op) Unary() bool {
	return o == OpIsNull || o == OpNotNull
}

// Node is a node of the predicate tree.
type Node interface {
	// String returns a human readable form of the node, used for debugging
	// and cache keys. It is not SQL.
	String() string
	node()
}

type (
	// Always matches every row.
	Always struct{}

	// Never matches no row.
	Never struct{}

	// Comparison compares a column against a literal.
	Comparison struct {
		Column string
		Op     Op
		Value  any
	}

	// Binary joins two nodes with AND or OR.
	Binary struct {
		Left  Node
		Op    Op
		Right Node
	}

	// Unary negates its operand.
	Unary struct {
		Op      Op
		Operand Node
	}

	// InSet matches rows whose column value is one of Values.
	InSet struct {
		Column string
		Values []any
	}

	// Raw carries an opaque backend specific payload. SQL dialects accept
	// payloads of the form {"sql": string, "args": []any}.
	Raw struct {
		Values map[string]any
	}
)

func (Always) node()     {}
func (Never) node()      {}
func (Comparison) node() {}
func (Binary) node()     {}
func (Unary) node()      {}
func (InSet) node()      {}
func (Raw) node()        {}

// Everything returns a node that matches all rows.
func Everything() Node { return Always{} }

// Nothing returns a node that matches no row.
func Nothing() Node { return Never{} }

// EQ returns a column = value predicate.
func EQ(column string, v any) Node { return Comparison{Column: column, Op: OpEQ, Value: v} }

// NE returns a column <> value predicate.
func NE(column string, v any) Node { return Comparison{Column: column, Op: OpNE, Value: v} }

// GT returns a column > value predicate.
func GT(column string, v any) Node { return Comparison{Column: column, Op: OpGT, Value: v} }

// LT returns a column < value predicate.
func LT(column string, v any) Node { return Comparison{Column: column, Op: OpLT, Value: v} }

// GE returns a column >= value predicate.
func GE(column string, v any) Node { return Comparison{Column: column, Op: OpGE, Value: v} }

// LE returns a column <= value predicate.
func LE(column string, v any) Node { return Comparison{Column: column, Op: OpLE, Value: v} }

// Like returns a column LIKE pattern predicate.
func Like(column, pattern string) Node {
	return Comparison{Column: column, Op: OpLike, Value: pattern}
}

// IsNull returns a column IS NULL predicate.
func IsNull(column string) Node { return Comparison{Column: column, Op: OpIsNull} }

// NotNull returns a column IS NOT NULL predicate.
func NotNull(column string) Node { return Comparison{Column: column, Op: OpNotNull} }

// In returns a predicate matching any of the given values. An empty value
// list matches nothing.
func In(column string, vs ...any) Node {
	return InSet{Column: column, Values: slices.Clone(vs)}
}

// Between returns lo <= column AND column <= hi.
func Between(column string, lo, hi any) Node {
	return And(GE(column, lo), LE(column, hi))
}

// And joins the nodes with AND, left to right. With no nodes it matches
// everything.
func And(nodes ...Node) Node {
	return fold(OpAnd, Always{}, nodes)
}

// Or joins the nodes with OR, left to right. With no nodes it matches
// nothing.
func Or(nodes ...Node) Node {
	return fold(OpOr, Never{}, nodes)
}

// Not negates the node.
func Not(n Node) Node {
	return Unary{Op: OpNot, Operand: n}
}

// RawNode wraps an opaque payload. The map is copied.
func RawNode(values map[string]any) Node {
	return Raw{Values: maps.Clone(values)}
}

// RawSQL is a Raw node holding a verbatim SQL fragment and its arguments.
func RawSQL(sql string, args ...any) Node {
	return Raw{Values: map[string]any{"sql": sql, "args": slices.Clone(args)}}
}

func fold(op Op, empty Node, nodes []Node) Node {
	if len(nodes) == 0 {
		return empty
	}
	n := nodes[0]
	for _, next := range nodes[1:] {
		n = Binary{Left: n, Op: op, Right: next}
	}
	return n
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }
