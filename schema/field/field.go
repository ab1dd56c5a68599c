package field

import (
	"maps"

	"github.com/syssam/tabula/schema"
)

// Builder is a fluent column builder.
type Builder struct {
	desc *schema.Column
}

func newBuilder(name string, t schema.Type) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Field: name, Type: t}}
}

// Bool returns a new boolean column builder.
func Bool(name string) *Builder { return newBuilder(name, schema.TypeBool) }

// Int returns a new integer column builder.
func Int(name string) *Builder { return newBuilder(name, schema.TypeInt) }

// Int64 returns a new 64-bit integer column builder.
func Int64(name string) *Builder { return newBuilder(name, schema.TypeInt64) }

// Float64 returns a new floating point column builder.
func Float64(name string) *Builder { return newBuilder(name, schema.TypeFloat64) }

// String returns a new VARCHAR column builder.
func String(name string) *Builder { return newBuilder(name, schema.TypeString) }

// Text returns a new unbounded text column builder.
func Text(name string) *Builder { return newBuilder(name, schema.TypeText) }

// Bytes returns a new binary column builder.
func Bytes(name string) *Builder { return newBuilder(name, schema.TypeBytes) }

// UUID returns a new UUID column builder.
func UUID(name string) *Builder { return newBuilder(name, schema.TypeUUID) }

// Time returns a new timestamp column builder.
func Time(name string) *Builder { return newBuilder(name, schema.TypeTime) }

// JSON returns a new column builder holding JSON encoded composite values.
func JSON(name string) *Builder { return newBuilder(name, schema.TypeJSON) }

// Enum returns a new enum column builder. Values are stored by name.
func Enum(name string, values ...string) *Builder {
	b := newBuilder(name, schema.TypeEnum)
	b.desc.EnumValues = values
	return b
}

// ID returns an auto increment int64 primary key column builder.
func ID(name string) *Builder {
	return Int64(name).AutoIncrement()
}

// Optional makes the column nullable.
func (b *Builder) Optional() *Builder {
	b.desc.Nullable = true
	return b
}

// Unique adds a unique index over the column.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Index adds a non-unique index over the column.
func (b *Builder) Index() *Builder {
	b.desc.Indexed = true
	return b
}

// Primary marks the column as (part of) the primary key.
func (b *Builder) Primary() *Builder {
	b.desc.Primary = true
	return b
}

// AutoIncrement makes the column a database generated primary key that is
// never written by INSERT statements.
func (b *Builder) AutoIncrement() *Builder {
	b.desc.AutoIncrement = true
	b.desc.Primary = true
	b.desc.SkipInsert = true
	return b
}

// SkipInsert excludes the column from INSERT statements.
func (b *Builder) SkipInsert() *Builder {
	b.desc.SkipInsert = true
	return b
}

// Default sets the literal default used by DDL for NOT NULL columns.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// StorageKey overrides the storage name of the column. Predicates and
// records may keep using the declared name.
func (b *Builder) StorageKey(name string) *Builder {
	b.desc.Name = name
	return b
}

// MaxLen sets the VARCHAR length of string columns.
func (b *Builder) MaxLen(n int) *Builder {
	b.desc.Size = n
	return b
}

// SchemaType overrides the column type name per dialect.
//
//	field.Float64("amount").SchemaType(map[string]string{
//	    dialect.MySQL: "decimal(10,2)",
//	})
func (b *Builder) SchemaType(types map[string]string) *Builder {
	b.desc.SchemaType = maps.Clone(types)
	return b
}

// OnAddColumn registers a hook invoked after the column was added to an
// existing table.
func (b *Builder) OnAddColumn(h schema.Hook) *Builder {
	if b.desc.Hooks == nil {
		b.desc.Hooks = make(map[schema.Action][]schema.Hook)
	}
	b.desc.Hooks[schema.ActionAddColumn] = append(b.desc.Hooks[schema.ActionAddColumn], h)
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *schema.Column {
	return b.desc
}

var _ schema.Field = (*Builder)(nil)
