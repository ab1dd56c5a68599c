// Package schema provides the static table descriptors consumed by the
// dialects, the migrator and the executor.
//
// A table is declared once per entity type with builders from the field,
// index and mixin subpackages, instead of being discovered at runtime:
//
//	items := schema.New("items").
//	    Mixin(mixin.ID{}).
//	    Fields(
//	        field.String("key").Unique(),
//	        field.Int("value").Index(),
//	        field.Text("note").Optional(),
//	    ).
//	    Indexes(
//	        index.Fields("value", "key").Desc("value"),
//	    ).
//	    Extrinsic(schema.OverflowJSON).
//	    MustBuild()
//
// A column flagged Unique, Index or Primary gets its own index group. The
// unique and primary flags of an index group are set when any of its
// columns carries them.
package schema
