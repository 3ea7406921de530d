package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/expr"
	"github.com/bisegni/ixscan/pkg/plan"
)

// ColumnStats summarizes one index column over a full scan.
type ColumnStats struct {
	Name  string
	Type  database.FieldType
	Nulls int
	Min   interface{}
	Max   interface{}
}

// IndexStats is the result of Stats.
type IndexStats struct {
	Index   *database.Index
	Entries int
	Columns []ColumnStats
}

// Stats scans every entry of ix in native order and counts entries and
// NULLs per column. Min and Max skip NULLs.
func (e *Executor) Stats(ctx context.Context, ix *database.Index) (*IndexStats, error) {
	op, err := plan.NewIndexScan(ix, plan.Unbounded(), nil)
	if err != nil {
		return nil, err
	}
	qc := plan.NewQueryContext(ctx, e.Store, plan.WithLogger(e.Logger), plan.WithMetrics(e.Metrics))
	iterator, err := plan.Rows(op.Cursor(qc), expr.None)
	if err != nil {
		return nil, err
	}
	defer iterator.Close()

	st := &IndexStats{Index: ix, Columns: make([]ColumnStats, len(ix.Columns))}
	for i, c := range ix.Columns {
		st.Columns[i] = ColumnStats{Name: c.Name, Type: c.Type}
	}
	for iterator.Next() {
		row := iterator.Row()
		st.Entries++
		for i := range st.Columns {
			cs := &st.Columns[i]
			v := row.Value(i)
			if v == nil {
				cs.Nulls++
				continue
			}
			if cs.Min == nil || database.CompareValues(cs.Type, v, cs.Min) < 0 {
				cs.Min = v
			}
			if cs.Max == nil || database.CompareValues(cs.Type, v, cs.Max) > 0 {
				cs.Max = v
			}
		}
	}
	if err := iterator.Error(); err != nil {
		return nil, err
	}
	return st, nil
}

// Print writes st in the plain report format of the stats command.
func (st *IndexStats) Print(w io.Writer) {
	fmt.Fprintf(w, "Index: %s (id %d, table %s)\n", st.Index, st.Index.ID, st.Index.Table)
	fmt.Fprintf(w, "Total entries: %d\n", st.Entries)
	fmt.Fprintf(w, "\nColumns:\n")
	for _, cs := range st.Columns {
		fmt.Fprintf(w, "  %s %s:\n", cs.Name, cs.Type)
		pct := 0.0
		if st.Entries > 0 {
			pct = float64(cs.Nulls) / float64(st.Entries) * 100
		}
		fmt.Fprintf(w, "    nulls: %d (%.1f%%)\n", cs.Nulls, pct)
		if cs.Min != nil {
			fmt.Fprintf(w, "    min: %s\n", database.FormatValue(cs.Min))
			fmt.Fprintf(w, "    max: %s\n", database.FormatValue(cs.Max))
		}
	}
}
