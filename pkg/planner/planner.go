package planner

import (
	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/plan"
	"github.com/bisegni/ixscan/pkg/query"
)

// CreatePlan converts a parsed SCAN statement into an execution plan
func CreatePlan(st *query.ScanStatement, catalog *database.Catalog) (*plan.Operator, error) {
	// 1. Resolve the index
	ix, err := catalog.GetIndex(st.Index)
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, "plan", err)
	}

	// 2. Ordering, by column name
	ordering := make(plan.Ordering, 0, len(st.OrderBy))
	for _, o := range st.OrderBy {
		pos := ix.ColumnIndex(o.Column)
		if pos < 0 {
			return nil, errs.Newf(errs.KindConfiguration, "plan", "index %s has no column %s", ix.Name, o.Column)
		}
		ordering = append(ordering, plan.OrderingColumn{Position: pos, Ascending: o.Ascending})
	}

	// 3. Key range
	keyRange := plan.Bounded(toBound(st.Low), toBound(st.High))

	current, err := plan.NewIndexScan(ix, keyRange, ordering)
	if err != nil {
		return nil, err
	}

	// 4. Projection
	if len(st.Select) > 0 {
		rt := current.RowType()
		positions := make([]int, len(st.Select))
		for i, name := range st.Select {
			positions[i] = rt.FieldIndex(name)
			if positions[i] < 0 {
				return nil, errs.Newf(errs.KindConfiguration, "plan", "index %s has no column %s", ix.Name, name)
			}
		}
		if current, err = plan.NewProject(current, positions); err != nil {
			return nil, err
		}
	}

	// 5. Limit
	if st.Count >= 0 || st.Offset > 0 {
		if current, err = plan.NewLimit(current, st.Offset, st.Count); err != nil {
			return nil, err
		}
	}

	return current, nil
}

func toBound(b *query.Bound) *plan.IndexBound {
	if b == nil {
		return nil
	}
	return &plan.IndexBound{Values: b.Values, Inclusive: b.Inclusive}
}
