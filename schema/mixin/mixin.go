// Package mixin provides reusable column sets for table declarations.
//
// A mixin is embedded in a table declaration through schema.Builder.Mixin.
// Its columns come before the table's own columns.
//
//	t := schema.New("items").
//	    Mixin(mixin.ID{}, mixin.Time{}).
//	    Fields(field.String("key").Unique()).
//	    MustBuild()
//
// Creating Custom Mixins:
//
// To create a custom mixin, embed Schema and override the methods you need:
//
//	type Tenant struct {
//	    mixin.Schema
//	}
//
//	func (Tenant) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.String("tenant").Index(),
//	    }
//	}
package mixin

import (
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/schema/field"
	"github.com/syssam/tabula/schema/index"
)

// Schema is the default implementation for the schema.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the columns of the mixin.
func (Schema) Fields() []schema.Field { return nil }

// Indexes returns the index groups of the mixin.
func (Schema) Indexes() []schema.Index { return nil }

// schema mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Schema)(nil)

// ID adds an auto increment int64 primary key named "id".
type ID struct {
	Schema
}

// Fields returns the id column.
func (ID) Fields() []schema.Field {
	return []schema.Field{
		field.ID("id"),
	}
}

// Time adds created_at and updated_at timestamp columns. Both default to
// the epoch in DDL; callers set them on write.
type Time struct {
	Schema
}

// Fields returns the time tracking columns.
func (Time) Fields() []schema.Field {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// Indexes returns an index over created_at.
func (Time) Indexes() []schema.Index {
	return CreateTime{}.Indexes()
}

// CreateTime adds only the created_at timestamp column.
type CreateTime struct {
	Schema
}

// Fields returns the created_at column.
func (CreateTime) Fields() []schema.Field {
	return []schema.Field{
		field.Time("created_at"),
	}
}

// Indexes returns an index over created_at.
func (CreateTime) Indexes() []schema.Index {
	return []schema.Index{
		index.Fields("created_at"),
	}
}

// UpdateTime adds only the updated_at timestamp column.
type UpdateTime struct {
	Schema
}

// Fields returns the updated_at column.
func (UpdateTime) Fields() []schema.Field {
	return []schema.Field{
		field.Time("updated_at"),
	}
}
