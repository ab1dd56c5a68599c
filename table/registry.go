package table

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/tabula/schema"
)

// Describer is implemented by entity types that declare their own table.
// Describe is called on the zero value of the type.
type Describer interface {
	Describe(*schema.Builder)
}

// Namer overrides the table name derived from the entity type name.
type Namer interface {
	TableName() string
}

// Registry caches the declared table of each entity type. The zero value
// is not usable; create one with NewRegistry.
type Registry struct {
	log    *slog.Logger
	group  singleflight.Group
	tables sync.Map // reflect.Type to *schema.Table
}

// NewRegistry returns an empty registry. Validation warnings are logged
// to l, or to the default logger when l is nil.
func NewRegistry(l *slog.Logger) *Registry {
	if l == nil {
		l = slog.Default()
	}
	return &Registry{log: l}
}

var defaultRegistry = NewRegistry(nil)

// Describe returns the table of T from the default registry.
func Describe[T Describer]() (*schema.Table, error) {
	return Lookup[T](defaultRegistry)
}

// Lookup returns the table declared by T, building and validating it on
// first use. The table is named after the type unless T implements Namer:
// an entity type UserAccount maps to the table user_accounts.
func Lookup[T Describer](r *Registry) (*schema.Table, error) {
	rt := reflect.TypeFor[T]()
	if v, ok := r.tables.Load(rt); ok {
		return v.(*schema.Table), nil
	}
	v, err, _ := r.group.Do(typeKey(rt), func() (any, error) {
		if v, ok := r.tables.Load(rt); ok {
			return v, nil
		}
		var zero T
		name := schema.TableName(baseType(rt).Name())
		if n, ok := any(zero).(Namer); ok {
			name = n.TableName()
		}
		b := schema.New(name)
		zero.Describe(b)
		t, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("table: describing %s: %w", rt, err)
		}
		if res := schema.ValidateTable(t); res.HasWarnings() {
			for _, w := range res.Warnings {
				r.log.Warn("table validation", "table", w.Table, "column", w.Column, "warning", w.Message)
			}
		}
		r.tables.Store(rt, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.Table), nil
}

// MustLookup is like Lookup but panics on error.
func MustLookup[T Describer](r *Registry) *schema.Table {
	t, err := Lookup[T](r)
	if err != nil {
		panic(err)
	}
	return t
}

func baseType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

func typeKey(rt reflect.Type) string {
	return baseType(rt).PkgPath() + "." + rt.String()
}
