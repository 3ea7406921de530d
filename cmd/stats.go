package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/database"
)

var statsCmd = &cobra.Command{
	Use:   "stats [index...]",
	Short: "Show entry and NULL counts of indexes",
	Long: `Scan indexes end to end and report the number of entries plus, per
column, the NULL count and the smallest and largest value. With no
arguments every configured index is reported.

Examples:
  ixscan stats
  ixscan stats t_abc`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	var indexes []*database.Index
	if len(args) == 0 {
		indexes = app.catalog.Indexes()
	}
	for _, name := range args {
		ix, err := app.catalog.GetIndex(name)
		if err != nil {
			return err
		}
		indexes = append(indexes, ix)
	}

	executor, err := app.executor()
	if err != nil {
		return err
	}
	for i, ix := range indexes {
		st, err := executor.Stats(cmd.Context(), ix)
		if err != nil {
			return err
		}
		if i > 0 {
			os.Stdout.WriteString("\n")
		}
		st.Print(os.Stdout)
	}
	return nil
}
