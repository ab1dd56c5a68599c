package schema

import (
	"fmt"
	"strings"
)

// Field is implemented by column builders, see the field package.
type Field interface {
	Descriptor() *Column
}

// Index is implemented by index builders, see the index package.
type Index interface {
	Descriptor() *IndexGroup
}

// Mixin is a reusable set of columns and indexes.
type Mixin interface {
	Fields() []Field
	Indexes() []Index
}

// Builder assembles a Table from declared fields, indexes and mixins.
//
//	t, err := schema.New("items").
//	    Fields(
//	        field.String("key").Unique(),
//	        field.Int("value").Index(),
//	    ).
//	    Build()
type Builder struct {
	name     string
	mixins   []Mixin
	fields   []Field
	indexes  []Index
	overflow Overflow
	ofName   string
}

// New returns a table builder.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Fields appends declared columns.
func (b *Builder) Fields(fs ...Field) *Builder {
	b.fields = append(b.fields, fs...)
	return b
}

// Indexes appends declared index groups.
func (b *Builder) Indexes(is ...Index) *Builder {
	b.indexes = append(b.indexes, is...)
	return b
}

// Mixin prepends the columns and indexes of the given mixins.
func (b *Builder) Mixin(ms ...Mixin) *Builder {
	b.mixins = append(b.mixins, ms...)
	return b
}

// Extrinsic enables the overflow column with the given codec.
func (b *Builder) Extrinsic(o Overflow) *Builder {
	b.overflow = o
	return b
}

// OverflowColumn overrides the overflow column name.
func (b *Builder) OverflowColumn(name string) *Builder {
	b.ofName = name
	return b
}

// Build validates and returns the table. Validation warnings do not fail
// the build; use Validate to inspect them.
func (b *Builder) Build() (*Table, error) {
	t := &Table{Name: b.name, Overflow: b.overflow, OverflowName: b.ofName}
	if t.Extrinsic() && t.OverflowName == "" {
		t.OverflowName = DefaultOverflowColumn
	}
	var (
		fields  []Field
		indexes []Index
	)
	for _, m := range b.mixins {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, b.fields...)
	indexes = append(indexes, b.indexes...)
	for _, f := range fields {
		c := f.Descriptor()
		if c.Field == "" {
			c.Field = c.Name
		}
		t.Columns = append(t.Columns, c)
	}
	for _, c := range t.Columns {
		if !c.Unique && !c.Indexed && !(c.Primary && !c.AutoIncrement) {
			continue
		}
		t.Indexes = append(t.Indexes, &IndexGroup{
			Columns: []IndexColumn{{Column: c.Name}},
			Unique:  c.Unique,
			Primary: c.Primary,
		})
	}
	for _, i := range indexes {
		t.Indexes = append(t.Indexes, i.Descriptor())
	}
	t.index()
	for _, g := range t.Indexes {
		for i, ic := range g.Columns {
			// Index groups may reference fields by their declared name.
			if c, ok := t.Column(ic.Column); ok {
				g.Columns[i].Column = c.Name
				g.Unique = g.Unique || c.Unique
				g.Primary = g.Primary || (c.Primary && !c.AutoIncrement)
			}
		}
		if g.Name == "" {
			g.Name = IndexName(t.Name, g)
		}
	}
	if r := ValidateTable(t); r.HasErrors() {
		return nil, fmt.Errorf("schema: invalid table %q:\n%s", t.Name, r)
	}
	return t, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// IndexName returns the default name of an index group.
func IndexName(table string, g *IndexGroup) string {
	parts := make([]string, 0, len(g.Columns)+2)
	parts = append(parts, table)
	parts = append(parts, g.ColumnNames()...)
	switch {
	case g.Primary:
		parts = append(parts, "pk")
	case g.Unique:
		parts = append(parts, "key")
	default:
		parts = append(parts, "idx")
	}
	return strings.Join(parts, "_")
}
