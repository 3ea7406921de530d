package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/expr"
	"github.com/bisegni/ixscan/pkg/logging"
	"github.com/bisegni/ixscan/pkg/metrics"
	"github.com/bisegni/ixscan/pkg/plan"
	"github.com/bisegni/ixscan/pkg/planner"
	"github.com/bisegni/ixscan/pkg/query"
	"github.com/bisegni/ixscan/pkg/storage"
)

// Output formats
const (
	FormatJSONL = "jsonl"
	FormatTable = "table"
)

// Executor runs SCAN statements against a store
type Executor struct {
	Catalog *database.Catalog
	Store   storage.Store
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Format string
	Pretty bool
	Color  bool
}

func NewExecutor(catalog *database.Catalog, store storage.Store) *Executor {
	return &Executor{
		Catalog: catalog,
		Store:   store,
		Logger:  logging.Discard(),
		Format:  FormatJSONL,
	}
}

// Plan parses and plans a statement without running it.
func (e *Executor) Plan(statement string) (*plan.Operator, error) {
	st, err := query.ParseScan(statement)
	if err != nil {
		return nil, err
	}
	return planner.CreatePlan(st, e.Catalog)
}

// Explain renders the plan of a statement.
func (e *Executor) Explain(statement string) (string, error) {
	op, err := e.Plan(statement)
	if err != nil {
		return "", err
	}
	return plan.FormatPlan(op), nil
}

// Execute plans statement, runs it with b and writes the rows to w. It
// returns the number of rows written.
func (e *Executor) Execute(ctx context.Context, statement string, b expr.Bindings, w io.Writer) (int, error) {
	op, err := e.Plan(statement)
	if err != nil {
		return 0, err
	}
	return e.Run(ctx, op, b, w)
}

// Run executes an already planned operator. Only the parameter positions op
// references are taken from b, so b may bind them in any order, with gaps or
// with extra values.
func (e *Executor) Run(ctx context.Context, op *plan.Operator, b expr.Bindings, w io.Writer) (int, error) {
	if b == nil {
		b = expr.None
	}
	bindings := expr.Copy(b, op.Params())
	e.Logger.Debug("executing plan", "params", op.Params(), "bound", len(bindings))

	qc := plan.NewQueryContext(ctx, e.Store, plan.WithLogger(e.Logger), plan.WithMetrics(e.Metrics))
	iterator, err := plan.Rows(op.Cursor(qc), bindings)
	if err != nil {
		return 0, err
	}
	defer iterator.Close()

	if e.Format == FormatTable {
		return e.writeTable(iterator, op.RowType(), w)
	}
	return e.writeJSONL(iterator, w)
}

func (e *Executor) writeJSONL(iterator database.RowIterator, w io.Writer) (int, error) {
	encoder := json.NewEncoder(w)
	if e.Pretty {
		encoder.SetIndent("", "  ")
	}

	n := 0
	for iterator.Next() {
		if err := encoder.Encode(iterator.Row().ToOrderedMap()); err != nil {
			return n, err
		}
		n++
	}
	return n, iterator.Error()
}

func (e *Executor) writeTable(iterator database.RowIterator, rt *database.RowType, w io.Writer) (int, error) {
	header := color.New(color.FgCyan, color.Bold)
	null := color.New(color.FgHiBlack)
	if !e.Color {
		header.DisableColor()
		null.DisableColor()
	}

	fields := rt.Fields()
	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = len(f.Name)
	}

	var rows [][]tableCell
	for iterator.Next() {
		row := iterator.Row()
		cells := make([]tableCell, row.Len())
		for i := range cells {
			cells[i] = tableCell{text: database.FormatValue(row.Value(i)), null: row.IsNull(i)}
			if len(cells[i].text) > widths[i] {
				widths[i] = len(cells[i].text)
			}
		}
		rows = append(rows, cells)
	}
	if err := iterator.Error(); err != nil {
		return 0, err
	}

	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(header.Sprint(pad(f.Name, widths[i])))
	}
	sb.WriteString("\n")
	for _, cells := range rows {
		for i, c := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			if c.null {
				sb.WriteString(null.Sprint(pad(c.text, widths[i])))
			} else {
				sb.WriteString(pad(c.text, widths[i]))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("(%d rows)\n", len(rows)))
	_, err := io.WriteString(w, sb.String())
	return len(rows), err
}

// tableCell is one rendered value. Text values are quoted, so only a real
// NULL prints as a bare NULL.
type tableCell struct {
	text string
	null bool
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
