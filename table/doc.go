// Package table provides typed access to declared tables.
//
// An entity type declares its table once and converts itself to and from
// records through a Codec:
//
//	type Item struct {
//	    Key   string
//	    Value int
//	}
//
//	func (Item) Describe(b *schema.Builder) {
//	    b.Fields(
//	        field.String("key").Unique(),
//	        field.Int("value").Index(),
//	    )
//	}
//
//	items := table.New[Item](db, table.MustLookup[Item](reg), itemCodec)
//	_, err := items.Insert(ctx, nil, Item{Key: "a", Value: 1}, dialect.ConflictError)
//	found, err := items.Find(ctx, nil, query.GT("value", 0), table.OrderBy(query.Asc("key")))
//
// Every operation takes an optional scope. Operations given the scope of
// a running transaction join it:
//
//	err := items.Transact(ctx, nil, func(ctx context.Context, s *sql.Scope) error {
//	    if _, err := items.Delete(ctx, s, query.EQ("key", "a"), 0); err != nil {
//	        return err
//	    }
//	    _, err := items.Insert(ctx, s, Item{Key: "a", Value: 2}, dialect.ConflictError)
//	    return err
//	})
//
// # Extrinsic tables
//
// A table declared with schema.Builder.Extrinsic keeps record fields that
// match no column in a single overflow column, encoded as JSON text or as
// msgpack. They are merged back into the record on read.
package table
