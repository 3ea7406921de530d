package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/loader"
	"github.com/bisegni/ixscan/pkg/parser"
)

var validateCmd = &cobra.Command{
	Use:   "validate <index> [file|-]",
	Short: "Check that JSON/JSONL records fit an index",
	Long: `Check that every record of a JSON or JSONL file converts to a row of the
index, without writing anything.

Examples:
  ixscan validate t_abc rows.jsonl
  cat rows.json | ixscan validate t_abc`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filename := "-"
	if len(args) > 1 {
		filename = args[1]
	}
	ix, err := app.catalog.GetIndex(args[0])
	if err != nil {
		return err
	}

	p, err := parser.NewParser(filename)
	if err != nil {
		return err
	}
	defer p.Close()

	n := 0
	err = p.ForEachRecord(func(rec parser.Record) error {
		n++
		if _, err := loader.RowFromRecord(ix, rec); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("❌ Validation failed: %v\n", err)
		return err
	}

	fmt.Printf("✅ Valid %s file with %d record(s) for %s\n", getFormat(p.IsJSONL()), n, ix)
	return nil
}

func getFormat(isJSONL bool) string {
	if isJSONL {
		return "JSONL"
	}
	return "JSON"
}
