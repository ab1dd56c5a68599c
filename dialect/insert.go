package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// MaxBatchRows is the largest number of value lists rendered into one
// extended INSERT.
const MaxBatchRows = 500

// Insert renders an INSERT of rows value lists. It returns the statement
// and the number of times the values of each row are bound, in order,
// to fill its placeholders.
func Insert(d Dialect, table string, columns, unique []string, policy ConflictPolicy, rows int) (string, int, error) {
	if len(columns) == 0 {
		return "", 0, errors.New("dialect: insert without columns")
	}
	if rows < 1 {
		return "", 0, fmt.Errorf("dialect: insert of %d rows", rows)
	}
	syn, err := d.InsertSyntax(policy, d.QuoteIdent(table), quoteAll(d, columns), quoteAll(d, unique))
	if err != nil {
		return "", 0, err
	}
	if rows > 1 && !multiRow(d, syn) {
		return "", 0, fmt.Errorf("%w: %d value lists in one INSERT on %s", ErrUnsupported, rows, d.Name())
	}
	tuple := "(" + strings.Repeat("?, ", len(columns)-1) + "?)"
	var b strings.Builder
	b.WriteString(syn.Head)
	b.WriteString(" VALUES ")
	for i := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	b.WriteString(syn.Tail)
	return b.String(), syn.Repeat, nil
}

// BatchRows returns the number of rows rendered into one INSERT for the
// conflict policy: MaxBatchRows on dialects with extended inserts, one
// when the dialect lacks them or the statement binds its values repeatedly.
func BatchRows(d Dialect, table string, columns, unique []string, policy ConflictPolicy) (int, error) {
	syn, err := d.InsertSyntax(policy, d.QuoteIdent(table), quoteAll(d, columns), quoteAll(d, unique))
	if err != nil {
		return 0, err
	}
	if !multiRow(d, syn) {
		return 1, nil
	}
	return MaxBatchRows, nil
}

func multiRow(d Dialect, syn InsertSyntax) bool {
	return d.ExtendedInsert() && syn.Repeat <= 1
}

// InsertArgs lays out the bound values of one row for a statement with
// the given repeat count.
func InsertArgs(row []any, repeat int) []any {
	if repeat <= 1 {
		return row
	}
	args := make([]any, 0, len(row)*repeat)
	for range repeat {
		args = append(args, row...)
	}
	return args
}

func quoteAll(d Dialect, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return quoted
}
