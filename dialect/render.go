package dialect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/tabula/query"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/typer"
)

// Render renders a predicate tree as a SQL condition. Comparison literals
// become ? placeholders whose values are returned in order; IN lists are
// inlined through Literal. When t is not nil, columns are resolved to their
// storage names and literals are serialized with the declared column types.
func Render(d Dialect, t *schema.Table, n query.Node) (string, []any, error) {
	r := &renderer{d: d, t: t}
	if err := r.node(n); err != nil {
		return "", nil, err
	}
	return r.b.String(), r.args, nil
}

type renderer struct {
	d    Dialect
	t    *schema.Table
	b    strings.Builder
	args []any
}

func (r *renderer) node(n query.Node) error {
	switch n := n.(type) {
	case nil:
		return errors.New("dialect: nil predicate")
	case query.Always:
		r.b.WriteString("1=1")
	case query.Never:
		r.b.WriteString("1=0")
	case query.Comparison:
		return r.comparison(n)
	case query.Binary:
		if n.Op != query.OpAnd && n.Op != query.OpOr {
			return fmt.Errorf("dialect: invalid binary operator %s", n.Op.SQL())
		}
		r.b.WriteString("((")
		if err := r.node(n.Left); err != nil {
			return err
		}
		r.b.WriteString(") ")
		r.b.WriteString(n.Op.SQL())
		r.b.WriteString(" (")
		if err := r.node(n.Right); err != nil {
			return err
		}
		r.b.WriteString("))")
	case query.Unary:
		if n.Op != query.OpNot {
			return fmt.Errorf("dialect: invalid unary operator %s", n.Op.SQL())
		}
		r.b.WriteString("(NOT (")
		if err := r.node(n.Operand); err != nil {
			return err
		}
		r.b.WriteString("))")
	case query.InSet:
		return r.in(n)
	case query.Raw:
		return r.raw(n)
	default:
		return fmt.Errorf("dialect: unexpected node %T", n)
	}
	return nil
}

func (r *renderer) comparison(n query.Comparison) error {
	name, typ, err := r.column(n.Column)
	if err != nil {
		return err
	}
	switch n.Op {
	case query.OpIsNull, query.OpNotNull:
		r.b.WriteString(r.d.QuoteIdent(name))
		r.b.WriteByte(' ')
		r.b.WriteString(n.Op.SQL())
		return nil
	case query.OpEQ, query.OpNE, query.OpGT, query.OpLT, query.OpGE, query.OpLE:
	case query.OpLike:
		typ = schema.TypeString
	default:
		return fmt.Errorf("dialect: invalid comparison operator %s", n.Op.SQL())
	}
	v, err := r.value(n.Value, typ)
	if err != nil {
		return fmt.Errorf("dialect: column %q: %w", n.Column, err)
	}
	r.b.WriteString(r.d.QuoteIdent(name))
	r.b.WriteByte(' ')
	r.b.WriteString(n.Op.SQL())
	r.b.WriteString(" ?")
	r.args = append(r.args, v)
	return nil
}

func (r *renderer) in(n query.InSet) error {
	if len(n.Values) == 0 {
		return r.node(query.Never{})
	}
	name, typ, err := r.column(n.Column)
	if err != nil {
		return err
	}
	lits := make([]string, len(n.Values))
	for i, v := range n.Values {
		w, err := r.value(v, typ)
		if err != nil {
			return fmt.Errorf("dialect: column %q: %w", n.Column, err)
		}
		if lits[i], err = Literal(r.d, w); err != nil {
			return err
		}
	}
	r.b.WriteString(r.d.QuoteIdent(name))
	r.b.WriteString(" IN (")
	r.b.WriteString(strings.Join(lits, ", "))
	r.b.WriteByte(')')
	return nil
}

func (r *renderer) raw(n query.Raw) error {
	text, ok := n.Values["sql"].(string)
	if !ok || text == "" {
		return fmt.Errorf("%w: raw predicate without a sql fragment", ErrUnsupported)
	}
	for k := range n.Values {
		if k != "sql" && k != "args" {
			return fmt.Errorf("%w: raw predicate key %q", ErrUnsupported, k)
		}
	}
	var args []any
	if a, ok := n.Values["args"]; ok && a != nil {
		if args, ok = a.([]any); !ok {
			return fmt.Errorf("%w: raw predicate args of type %T", ErrUnsupported, a)
		}
	}
	if got := strings.Count(text, "?"); got != len(args) {
		return fmt.Errorf("dialect: raw predicate has %d placeholders and %d args", got, len(args))
	}
	r.b.WriteString(text)
	r.args = append(r.args, args...)
	return nil
}

func (r *renderer) column(name string) (string, schema.Type, error) {
	if r.t == nil {
		return name, schema.TypeInvalid, nil
	}
	c, ok := r.t.Column(name)
	if !ok {
		return "", schema.TypeInvalid, fmt.Errorf("dialect: unknown column %q in table %q", name, r.t.Name)
	}
	return c.Name, c.Type, nil
}

func (r *renderer) value(v any, t schema.Type) (any, error) {
	if t == schema.TypeInvalid {
		return v, nil
	}
	return typer.Serialize(v, t)
}

// Literal renders a wire value as an inline SQL literal using the quoting
// rules of the dialect.
func Literal(d Dialect, v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		return d.QuoteBool(v), nil
	case string:
		return d.QuoteString(v), nil
	case []byte:
		return d.QuoteBytes(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case time.Time:
		return d.QuoteTime(v), nil
	case uuid.UUID:
		return d.QuoteString(v.String()), nil
	case fmt.Stringer:
		return d.QuoteString(v.String()), nil
	}
	return "", fmt.Errorf("%w: literal of type %T", ErrUnsupported, v)
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: literal %v", ErrUnsupported, f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}
