package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Query the index and print ranked results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top", 0, "max results to return (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	topK := cfg.Search.DefaultTopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	eng := engine.New(nil, cfg.Index.IndexFile, cfg.Index.SampleFile)
	results := eng.Search(query, topK)

	if len(results) == 0 {
		fmt.Printf("No results for %q.\n", query)
		return nil
	}

	fmt.Printf("%d results for %q:\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("%2d. %s  (score %.4f)\n", i+1, r.Title, r.Score)
		fmt.Printf("    %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
		fmt.Println()
	}
	return nil
}
