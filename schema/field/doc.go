// Package field provides fluent builders for declaring table columns.
//
// Column names follow database conventions (snake_case):
//
//	field.ID("id")                         // auto increment primary key
//	field.String("key").Unique()           // VARCHAR with a unique index
//	field.Int("value").Index()             // INTEGER with an index
//	field.Text("note").Optional()          // nullable TEXT
//	field.Enum("state", "new", "done")     // stored by name
//	field.Time("seen_at").Default(epoch)   // NOT NULL with a default
//	field.Int("score").StorageKey("pts")   // stored as "pts"
//
// Columns added to an already deployed table can carry migration hooks:
//
//	field.Int("rank").OnAddColumn(func(ctx context.Context, hc schema.HookContext) error {
//	    _, err := hc.Exec(ctx, "UPDATE items SET rank = value")
//	    return err
//	})
package field
