package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.New(nil, cfg.Index.IndexFile, cfg.Index.SampleFile)
		stats := eng.Stats()
		fmt.Printf("Documents: %d\n", stats.Documents)
		fmt.Printf("Terms:     %d\n", stats.Terms)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
