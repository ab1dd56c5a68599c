package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/tabula/schema"
)

// Diff is the difference between the declared columns of a table and the
// columns of its live counterpart. Column names compare case insensitively.
type Diff struct {
	Table string
	// Missing holds the declared columns absent from the live table, in
	// declaration order.
	Missing []*schema.Column
	// Overflow is the overflow column when the table is extrinsic and the
	// live table lacks it.
	Overflow *schema.Column
	// Extra holds live columns that are not declared. They are never
	// dropped.
	Extra []string
}

// Compare computes the diff between t and the live column names.
func Compare(t *schema.Table, live []string) *Diff {
	d := &Diff{Table: t.Name}
	seen := make(map[string]bool, len(live))
	for _, name := range live {
		seen[strings.ToLower(name)] = true
	}
	declared := make(map[string]bool, len(t.Columns)+1)
	for _, c := range t.Columns {
		declared[strings.ToLower(c.Name)] = true
		if !seen[strings.ToLower(c.Name)] {
			d.Missing = append(d.Missing, c)
		}
	}
	if oc := t.OverflowColumn(); oc != nil {
		declared[strings.ToLower(oc.Name)] = true
		if !seen[strings.ToLower(oc.Name)] {
			d.Overflow = oc
		}
	}
	for _, name := range live {
		if !declared[strings.ToLower(name)] {
			d.Extra = append(d.Extra, name)
		}
	}
	return d
}

// Empty reports whether the live table needs no change.
func (d *Diff) Empty() bool {
	return len(d.Missing) == 0 && d.Overflow == nil
}

// String returns a human-readable summary of the diff.
func (d *Diff) String() string {
	if d.Empty() && len(d.Extra) == 0 {
		return d.Table + ": up to date"
	}
	var sb strings.Builder
	sb.WriteString(d.Table)
	sb.WriteByte(':')
	for _, c := range d.Missing {
		fmt.Fprintf(&sb, " +%s", c.Name)
	}
	if d.Overflow != nil {
		fmt.Fprintf(&sb, " +%s(overflow)", d.Overflow.Name)
	}
	for _, name := range d.Extra {
		fmt.Fprintf(&sb, " ?%s", name)
	}
	return sb.String()
}
