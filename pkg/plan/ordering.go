package plan

import (
	"fmt"
	"strings"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
)

// OrderingColumn requests one index column in one direction.
type OrderingColumn struct {
	Position  int
	Ascending bool
}

// Ordering is the row sequence a caller wants from a scan.
type Ordering []OrderingColumn

// NewOrdering builds an ordering from alternating position and ascending
// arguments: NewOrdering(0, true, 1, false).
func NewOrdering(spec ...interface{}) Ordering {
	if len(spec)%2 != 0 {
		panic("ordering needs position/ascending pairs")
	}
	o := make(Ordering, 0, len(spec)/2)
	for i := 0; i < len(spec); i += 2 {
		o = append(o, OrderingColumn{Position: spec[i].(int), Ascending: spec[i+1].(bool)})
	}
	return o
}

// validateOrdering checks that o names index columns forming a prefix of the
// index, in index order.
func validateOrdering(columns int, o Ordering) error {
	for i, c := range o {
		if c.Position < 0 || c.Position >= columns {
			return errs.Newf(errs.KindConfiguration, "ordering", "position %d is not a column of the index", c.Position)
		}
		if c.Position != i {
			return errs.Newf(errs.KindConfiguration, "ordering",
				"ordering column %d references index column %d; orderings must follow the index column prefix", i, c.Position)
		}
	}
	return nil
}

// Reverse flips every direction.
func (o Ordering) Reverse() Ordering {
	r := make(Ordering, len(o))
	for i, c := range o {
		r[i] = OrderingColumn{Position: c.Position, Ascending: !c.Ascending}
	}
	return r
}

// Compare orders two rows on the ordering columns only; rows equal on every
// ordering column compare as 0.
func (o Ordering) Compare(a, b database.Row) int {
	for _, c := range o {
		d := a.Compare(b, c.Position)
		if d == 0 {
			continue
		}
		if !c.Ascending {
			return -d
		}
		return d
	}
	return 0
}

// Format renders the ordering with column names taken from rt.
func (o Ordering) Format(rt *database.RowType) string {
	if len(o) == 0 {
		return "natural"
	}
	parts := make([]string, len(o))
	for i, c := range o {
		name := fmt.Sprintf("#%d", c.Position)
		if rt != nil && c.Position < rt.Arity() {
			name = rt.Field(c.Position).Name
		}
		dir := "ASC"
		if !c.Ascending {
			dir = "DESC"
		}
		parts[i] = name + " " + dir
	}
	return strings.Join(parts, ", ")
}

func (o Ordering) String() string {
	return o.Format(nil)
}
