package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/loader"
)

var loadBatchSize int

var loadCmd = &cobra.Command{
	Use:   "load <index> [file|JSON|-]",
	Short: "Load JSON/JSONL records into an index",
	Long: `Load records into an index. Record fields are matched to index columns
by name; a missing field is NULL.

Supports:
  - File paths: ixscan load t_abc rows.jsonl
  - Stdin: cat rows.json | ixscan load t_abc
  - Inline JSON: ixscan load t_abc '[{"a":1,"b":2,"c":3,"id":1}]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := "-"
		if len(args) > 1 {
			source = args[1]
		}
		ix, err := app.catalog.GetIndex(args[0])
		if err != nil {
			return err
		}
		store, err := app.openStore()
		if err != nil {
			return err
		}
		ld := loader.New(store,
			loader.WithLogger(app.logger),
			loader.WithMetrics(app.metrics),
			loader.WithBatchSize(loadBatchSize),
		)
		n, err := ld.LoadFile(cmd.Context(), ix, source)
		if err != nil {
			return fmt.Errorf("loaded %d record(s) before failing: %w", n, err)
		}
		fmt.Printf("Loaded %d record(s) into %s\n", n, ix.Name)
		return nil
	},
}

func init() {
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", loader.DefaultBatchSize, "Index entries written per batch")
}
