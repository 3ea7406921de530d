package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/database"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List the configured indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printIndexes(os.Stdout, app.catalog)
		return nil
	},
}

func printIndexes(w io.Writer, catalog *database.Catalog) {
	for _, ix := range catalog.Indexes() {
		fmt.Fprintf(w, "%s (id %d, table %s)\n", ix.Name, ix.ID, ix.Table)
		for _, c := range ix.Columns {
			null := " NOT NULL"
			if c.Nullable {
				null = ""
			}
			fmt.Fprintf(w, "  %-12s %s %s%s\n", c.Name, c.Type, c.Direction, null)
		}
	}
}
