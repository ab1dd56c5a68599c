package schema

import (
	"context"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
)

// Type is the declared type of a column.
type Type uint8

// Column types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeString
	TypeText
	TypeBytes
	TypeUUID
	TypeTime
	TypeEnum
	TypeJSON
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeText:    "text",
	TypeBytes:   "bytes",
	TypeUUID:    "uuid",
	TypeTime:    "time",
	TypeEnum:    "enum",
	TypeJSON:    "json",
}

// String returns the name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// Numeric reports if the type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt64 || t == TypeFloat64
}

// Action identifies the schema change a migration hook is invoked for.
type Action uint8

// Migration actions.
const (
	ActionAddColumn Action = iota + 1
)

// String returns the action name.
func (a Action) String() string {
	if a == ActionAddColumn {
		return "ADD_COLUMN"
	}
	return "UNKNOWN"
}

// HookContext is passed to migration hooks. Exec runs a statement on the
// connection that performs the migration; placeholders are written as ?.
type HookContext struct {
	Table  *Table
	Column *Column
	Action Action
	Exec   func(ctx context.Context, query string, args ...any) (int64, error)
}

// Hook is a per column migration hook.
type Hook func(ctx context.Context, hc HookContext) error

// Overflow selects how fields absent from the declared columns are stored.
type Overflow uint8

// Overflow codecs.
const (
	OverflowNone Overflow = iota
	// OverflowJSON stores a JSON encoded map in a text column.
	OverflowJSON
	// OverflowMsgpack stores a msgpack encoded map in a blob column.
	OverflowMsgpack
)

// DefaultOverflowColumn is the name of the overflow column unless the table
// overrides it.
const DefaultOverflowColumn = "extrinsic"

// Column describes one declared column.
type Column struct {
	// Name is the storage name of the column.
	Name string
	// Field is the declared field name. It differs from Name when the
	// storage key was overridden.
	Field         string
	Type          Type
	Size          int // VARCHAR length; 0 means the dialect default
	Nullable      bool
	Unique        bool
	Primary       bool
	Indexed       bool
	AutoIncrement bool
	// SkipInsert excludes the column from INSERT statements.
	SkipInsert bool
	// Default is the literal used for NOT NULL columns. When nil the zero
	// value of the type is used.
	Default    any
	EnumValues []string
	// SchemaType overrides the dialect type name, keyed by dialect name.
	SchemaType map[string]string
	Hooks      map[Action][]Hook
}

// DefaultValue returns the default literal used in DDL.
func (c *Column) DefaultValue() any {
	if c.Default != nil {
		return c.Default
	}
	return ZeroValue(c)
}

// ZeroValue returns the wire zero value of the column type.
func ZeroValue(c *Column) any {
	switch c.Type {
	case TypeBool:
		return false
	case TypeInt, TypeInt64:
		return int64(0)
	case TypeFloat64:
		return float64(0)
	case TypeBytes:
		return []byte{}
	case TypeUUID:
		return "00000000-0000-0000-0000-000000000000"
	case TypeTime:
		return time.Unix(0, 0).UTC()
	case TypeEnum:
		if len(c.EnumValues) > 0 {
			return c.EnumValues[0]
		}
		return ""
	case TypeJSON:
		return "null"
	default:
		return ""
	}
}

// IndexColumn is one column of an index group.
type IndexColumn struct {
	Column string
	Desc   bool
}

// IndexGroup is a named index over one or more columns.
type IndexGroup struct {
	Name    string
	Columns []IndexColumn
	Unique  bool
	Primary bool
}

// ColumnNames returns the names of the indexed columns.
func (g *IndexGroup) ColumnNames() []string {
	names := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		names[i] = c.Column
	}
	return names
}

// Table is the static description of one table. It is built once per
// entity type and shared read-only afterwards.
type Table struct {
	Name     string
	Columns  []*Column
	Indexes  []*IndexGroup
	Overflow Overflow
	// OverflowName is the overflow column name when Overflow is set.
	OverflowName string

	byName map[string]*Column
}

// Extrinsic reports whether the table stores unmatched fields in an
// overflow column.
func (t *Table) Extrinsic() bool { return t.Overflow != OverflowNone }

// Column returns the column with the given storage or field name.
func (t *Table) Column(name string) (*Column, bool) {
	if t.byName != nil {
		c, ok := t.byName[name]
		return c, ok
	}
	for _, c := range t.Columns {
		if c.Name == name || c.Field == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the storage names of all declared columns.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// InsertColumns returns the columns written by INSERT statements.
func (t *Table) InsertColumns() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.SkipInsert {
			cols = append(cols, c)
		}
	}
	return cols
}

// PrimaryKey returns the primary key columns.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.Primary {
			pk = append(pk, c)
		}
	}
	return pk
}

// UniqueColumns returns the columns of the first primary or unique index
// group, which identifies a row for upserts.
func (t *Table) UniqueColumns() []string {
	for _, g := range t.Indexes {
		if g.Primary {
			return g.ColumnNames()
		}
	}
	for _, g := range t.Indexes {
		if g.Unique {
			return g.ColumnNames()
		}
	}
	var names []string
	for _, c := range t.PrimaryKey() {
		names = append(names, c.Name)
	}
	return names
}

// OverflowColumn returns the synthetic overflow column, or nil.
func (t *Table) OverflowColumn() *Column {
	switch t.Overflow {
	case OverflowJSON:
		return &Column{Name: t.OverflowName, Field: t.OverflowName, Type: TypeText, Nullable: true}
	case OverflowMsgpack:
		return &Column{Name: t.OverflowName, Field: t.OverflowName, Type: TypeBytes, Nullable: true}
	}
	return nil
}

func (t *Table) index() {
	t.byName = make(map[string]*Column, len(t.Columns)*2)
	for _, c := range t.Columns {
		t.byName[c.Name] = c
		if c.Field != "" {
			t.byName[c.Field] = c
		}
	}
}

// TableName derives a table name from an entity type name:
// "UserAccount" becomes "user_accounts".
func TableName(entity string) string {
	return strings.ToLower(inflect.Pluralize(inflect.Underscore(entity)))
}
