package query

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

var debugOps = map[Op]string{
	OpAnd:  "&&",
	OpOr:   "||",
	OpEQ:   "==",
	OpNE:   "!=",
	OpGT:   ">",
	OpLT:   "<",
	OpGE:   ">=",
	OpLE:   "<=",
	OpLike: "like",
}

// String implements Node.
func (Always) String() string { return "true" }

// String implements Node.
func (Never) String() string { return "false" }

// String implements Node.
func (c Comparison) String() string {
	switch c.Op {
	case OpIsNull:
		return c.Column + " == nil"
	case OpNotNull:
		return c.Column + " != nil"
	}
	return fmt.Sprintf("%s %s %s", c.Column, debugOps[c.Op], literal(c.Value))
}

// String implements Node.
func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, debugOps[b.Op], b.Right)
}

// String implements Node.
func (u Unary) String() string {
	return "!(" + u.Operand.String() + ")"
}

// String implements Node.
func (in InSet) String() string {
	vs := make([]string, len(in.Values))
	for i, v := range in.Values {
		vs[i] = literal(v)
	}
	return fmt.Sprintf("%s in [%s]", in.Column, strings.Join(vs, ","))
}

// String implements Node.
func (r Raw) String() string {
	keys := slices.Sorted(maps.Keys(r.Values))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, r.Values[k])
	}
	return "raw(" + strings.Join(parts, ", ") + ")"
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case []byte:
		return fmt.Sprintf("0x%x", v)
	case time.Time:
		return strconv.Quote(v.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return strconv.Quote(v.String())
	default:
		return fmt.Sprint(v)
	}
}
