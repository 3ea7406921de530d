package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/engine"
)

var (
	ScanExplain bool
	ScanParams  []string
	ScanFormat  string
	ScanColor   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <statement>",
	Short: "Run a SCAN statement against an index",
	Long: `Run a SCAN statement and print the rows.

Statement syntax:
  SCAN <index>
    [WHERE KEY {FROM|AFTER} (v, ...) [{TO|BEFORE} (v, ...)]]
    [ORDER BY col [ASC|DESC], ...]
    [SELECT col, ...]
    [LIMIT n [OFFSET m]]

Values are literals or parameters $0, $1, ... bound with --param in order,
or out of order with --param N=value.

Examples:
  ixscan scan 'SCAN t_abc ORDER BY a, b DESC'
  ixscan scan 'SCAN t_abc WHERE KEY FROM ($0) TO ($0) SELECT id' -P 2
  ixscan scan 'SCAN t_abc WHERE KEY FROM ($2) SELECT id' -P 2=5
  ixscan scan 'SCAN t_abc ORDER BY a DESC LIMIT 10' --format table
  ixscan scan 'SCAN t_abc ORDER BY a, b DESC' --explain`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunScan(cmd.Context(), args[0], os.Stdout)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&ScanExplain, "explain", false, "Print the execution plan instead of running it")
	scanCmd.Flags().StringArrayVarP(&ScanParams, "param", "P", nil, "Parameter value, repeat for $0, $1, ... or bind one position with N=value (NULL, TRUE, FALSE, numbers, 'text')")
	scanCmd.Flags().StringVarP(&ScanFormat, "format", "f", engine.FormatJSONL, "Output format (jsonl or table)")
	scanCmd.Flags().BoolVar(&ScanColor, "color", false, "Colorize table output")
}

// RunScan plans and runs statement with the --param values, or prints its
// plan with --explain.
func RunScan(ctx context.Context, statement string, w io.Writer) error {
	executor, err := app.executor()
	if err != nil {
		return err
	}
	if ScanExplain {
		out, err := executor.Explain(statement)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "Execution Plan:")
		fmt.Fprint(w, out)
		return nil
	}

	switch ScanFormat {
	case engine.FormatJSONL, engine.FormatTable:
		executor.Format = ScanFormat
	default:
		return fmt.Errorf("unknown output format %q", ScanFormat)
	}
	executor.Color = ScanColor

	params, err := engine.ParseParams(ScanParams)
	if err != nil {
		return err
	}
	n, err := executor.Execute(ctx, statement, params, w)
	if err != nil {
		return err
	}
	app.logger.Debug("scan finished", "rows", n)
	return nil
}
