package table_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/schema/field"
	"github.com/syssam/tabula/table"
)

type UserAccount struct{}

func (UserAccount) Describe(b *schema.Builder) {
	b.Fields(
		field.ID("id"),
		field.String("email").Unique(),
		field.Text("bio").Optional(),
	)
}

type Ledger struct{}

func (*Ledger) TableName() string { return "ledger" }

func (*Ledger) Describe(b *schema.Builder) {
	b.Fields(field.Float64("amount").Default(0.0))
}

type Broken struct{}

func (Broken) Describe(b *schema.Builder) {
	b.Fields(field.String("name"), field.String("name"))
}

func TestRegistryLookup(t *testing.T) {
	var buf strings.Builder
	r := table.NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))

	var g errgroup.Group
	tables := make([]*schema.Table, 8)
	for i := range tables {
		g.Go(func() (err error) {
			tables[i], err = table.Lookup[UserAccount](r)
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, tbl := range tables {
		assert.Same(t, tables[0], tbl, "a table is built once")
	}
	assert.Equal(t, "user_accounts", tables[0].Name)
	assert.Equal(t, []string{"id", "email", "bio"}, tables[0].ColumnNames())
	assert.Equal(t, 1, strings.Count(buf.String(), "table validation"), "email has no default")

	ledger, err := table.Lookup[*Ledger](r)
	require.NoError(t, err)
	assert.Equal(t, "ledger", ledger.Name)

	_, err = table.Lookup[Broken](r)
	require.ErrorContains(t, err, "describing table_test.Broken")
	assert.Panics(t, func() { table.MustLookup[Broken](r) })
}

func TestDescribe(t *testing.T) {
	a, err := table.Describe[UserAccount]()
	require.NoError(t, err)
	b, err := table.Describe[UserAccount]()
	require.NoError(t, err)
	assert.Same(t, a, b)

	users := table.New(openDB(t), a, table.Codec[table.Record](table.Records{}))
	_, err = users.Insert(context.Background(), nil, table.Record{"email": "a@b.c"}, dialect.ConflictError)
	require.NoError(t, err)
	got, err := users.FindOne(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got["email"])
	assert.Nil(t, got["bio"])
}
