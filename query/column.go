package query

// Field is a column handle bound to the entity type T.
type Field[T any] interface {
	Name() string
	entity(T)
}

// Column is a typed column of the entity T holding values of type V. The
// type parameters only constrain which predicates compile; the handle is
// just the column name.
//
// Usage:
//
//	var Email = query.Col[User, string]("email")
//	p := Email.EQ("a@example.com")
type Column[T, V any] string

// Col returns a typed column handle.
func Col[T, V any](name string) Column[T, V] { return Column[T, V](name) }

// Name returns the column name.
func (c Column[T, V]) Name() string { return string(c) }

func (Column[T, V]) entity(T) {}

// EQ returns a predicate that checks if the column equals the given value.
func (c Column[T, V]) EQ(v V) Node { return EQ(string(c), v) }

// NE returns a predicate that checks if the column does not equal the given value.
func (c Column[T, V]) NE(v V) Node { return NE(string(c), v) }

// GT returns a predicate that checks if the column is greater than the given value.
func (c Column[T, V]) GT(v V) Node { return GT(string(c), v) }

// LT returns a predicate that checks if the column is less than the given value.
func (c Column[T, V]) LT(v V) Node { return LT(string(c), v) }

// GE returns a predicate that checks if the column is greater than or equal to the given value.
func (c Column[T, V]) GE(v V) Node { return GE(string(c), v) }

// LE returns a predicate that checks if the column is less than or equal to the given value.
func (c Column[T, V]) LE(v V) Node { return LE(string(c), v) }

// Like returns a predicate matching the column against a LIKE pattern.
func (c Column[T, V]) Like(pattern string) Node { return Like(string(c), pattern) }

// In returns a predicate that checks if the column value is in the given list.
func (c Column[T, V]) In(vs ...V) Node {
	args := make([]any, len(vs))
	for i := range vs {
		args[i] = vs[i]
	}
	return InSet{Column: string(c), Values: args}
}

// Between returns a predicate that checks lo <= column <= hi.
func (c Column[T, V]) Between(lo, hi V) Node { return Between(string(c), lo, hi) }

// IsNull returns a predicate that checks if the column is NULL.
func (c Column[T, V]) IsNull() Node { return IsNull(string(c)) }

// NotNull returns a predicate that checks if the column is not NULL.
func (c Column[T, V]) NotNull() Node { return NotNull(string(c)) }

// Asc orders by the column ascending.
func (c Column[T, V]) Asc() Order { return Asc(string(c)) }

// Desc orders by the column descending.
func (c Column[T, V]) Desc() Order { return Desc(string(c)) }

// Builder is the predicate DSL bound to the entity type T. Columns of other
// entities do not satisfy Field[T].
type Builder[T any] struct{}

// Where builds a predicate from a declarative callback.
func Where[T any](fn func(Builder[T]) Node) Node {
	n := fn(Builder[T]{})
	if n == nil {
		return Always{}
	}
	return n
}

// Eq returns f = v.
func (Builder[T]) Eq(f Field[T], v any) Node { return EQ(f.Name(), v) }

// Ne returns f <> v.
func (Builder[T]) Ne(f Field[T], v any) Node { return NE(f.Name(), v) }

// Gt returns f > v.
func (Builder[T]) Gt(f Field[T], v any) Node { return GT(f.Name(), v) }

// Lt returns f < v.
func (Builder[T]) Lt(f Field[T], v any) Node { return LT(f.Name(), v) }

// Ge returns f >= v.
func (Builder[T]) Ge(f Field[T], v any) Node { return GE(f.Name(), v) }

// Le returns f <= v.
func (Builder[T]) Le(f Field[T], v any) Node { return LE(f.Name(), v) }

// Like returns f LIKE pattern.
func (Builder[T]) Like(f Field[T], pattern string) Node { return Like(f.Name(), pattern) }

// In returns f IN (vs...).
func (Builder[T]) In(f Field[T], vs ...any) Node { return In(f.Name(), vs...) }

// Between returns lo <= f <= hi.
func (Builder[T]) Between(f Field[T], lo, hi any) Node { return Between(f.Name(), lo, hi) }

// And joins the nodes with AND.
func (Builder[T]) And(nodes ...Node) Node { return And(nodes...) }

// Or joins the nodes with OR.
func (Builder[T]) Or(nodes ...Node) Node { return Or(nodes...) }

// Not negates the node.
func (Builder[T]) Not(n Node) Node { return Not(n) }

// Everything matches all rows.
func (Builder[T]) Everything() Node { return Always{} }

// Nothing matches no row.
func (Builder[T]) Nothing() Node { return Never{} }

// Raw wraps an opaque backend payload.
func (Builder[T]) Raw(values map[string]any) Node { return RawNode(values) }
