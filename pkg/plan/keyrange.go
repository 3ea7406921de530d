package plan

import (
	"strings"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/expr"
)

// IndexBound is one end of a key range: values for a prefix of the index
// columns and whether keys equal to that prefix are included.
type IndexBound struct {
	Values    []expr.Expression
	Inclusive bool
}

// IndexKeyRange restricts a scan. Low and High are in the index's physical
// key order, so on a descending column Low holds the larger value. A nil
// bound leaves that side open.
type IndexKeyRange struct {
	Low  *IndexBound
	High *IndexBound
}

// Unbounded covers the whole index.
func Unbounded() IndexKeyRange {
	return IndexKeyRange{}
}

// Bounded restricts the scan on either or both sides.
func Bounded(low, high *IndexBound) IndexKeyRange {
	return IndexKeyRange{Low: low, High: high}
}

// Inclusive is a shorthand for an inclusive bound.
func Inclusive(values ...expr.Expression) *IndexBound {
	return &IndexBound{Values: values, Inclusive: true}
}

// Exclusive is a shorthand for an exclusive bound.
func Exclusive(values ...expr.Expression) *IndexBound {
	return &IndexBound{Values: values}
}

// Point restricts the scan to keys starting with values.
func Point(values ...expr.Expression) IndexKeyRange {
	return IndexKeyRange{Low: Inclusive(values...), High: Inclusive(values...)}
}

func (r IndexKeyRange) IsUnbounded() bool {
	return r.Low == nil && r.High == nil
}

// Params lists the parameter positions the bounds reference.
func (r IndexKeyRange) Params() []int {
	var all []expr.Expression
	if r.Low != nil {
		all = append(all, r.Low.Values...)
	}
	if r.High != nil {
		all = append(all, r.High.Values...)
	}
	return expr.Params(all...)
}

func (r IndexKeyRange) validate(ix *database.Index) error {
	for _, b := range []*IndexBound{r.Low, r.High} {
		if b == nil {
			continue
		}
		if len(b.Values) > len(ix.Columns) {
			return errs.Newf(errs.KindConfiguration, "key range",
				"bound has %d values, index %s has %d columns", len(b.Values), ix.Name, len(ix.Columns))
		}
	}
	return nil
}

func (r IndexKeyRange) String() string {
	if r.IsUnbounded() {
		return "unbounded"
	}
	var sb strings.Builder
	if r.Low == nil {
		sb.WriteString("(-inf")
	} else {
		if r.Low.Inclusive {
			sb.WriteString("[")
		} else {
			sb.WriteString("(")
		}
		sb.WriteString(expr.Join(r.Low.Values))
	}
	sb.WriteString(", ")
	if r.High == nil {
		sb.WriteString("+inf)")
	} else {
		sb.WriteString(expr.Join(r.High.Values))
		if r.High.Inclusive {
			sb.WriteString("]")
		} else {
			sb.WriteString(")")
		}
	}
	return sb.String()
}
