// Package index provides fluent builders for declaring index groups.
//
//	index.Fields("tenant", "key").Unique()
//	index.Fields("created_at").Desc("created_at").StorageKey("items_recent")
package index

import (
	"github.com/syssam/tabula/schema"
)

// Builder is a fluent index group builder.
type Builder struct {
	desc *schema.IndexGroup
}

// Fields returns a new index group over the given columns.
func Fields(columns ...string) *Builder {
	desc := &schema.IndexGroup{Columns: make([]schema.IndexColumn, len(columns))}
	for i, c := range columns {
		desc.Columns[i] = schema.IndexColumn{Column: c}
	}
	return &Builder{desc: desc}
}

// Unique makes the index unique.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Primary makes the index the primary index of the table. Dialects without
// native primary indexes create a unique index instead.
func (b *Builder) Primary() *Builder {
	b.desc.Primary = true
	return b
}

// Desc sorts the given columns descending.
func (b *Builder) Desc(columns ...string) *Builder {
	for _, name := range columns {
		for i := range b.desc.Columns {
			if b.desc.Columns[i].Column == name {
				b.desc.Columns[i].Desc = true
			}
		}
	}
	return b
}

// StorageKey sets the index name.
func (b *Builder) StorageKey(name string) *Builder {
	b.desc.Name = name
	return b
}

// Descriptor implements the schema.Index interface by returning its descriptor.
func (b *Builder) Descriptor() *schema.IndexGroup {
	return b.desc
}

var _ schema.Index = (*Builder)(nil)
