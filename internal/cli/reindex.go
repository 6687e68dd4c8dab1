package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/internal/archive"
	"github.com/SiddhantNarel/mini-search-engine/internal/index"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the crawl archive",
	Long: `Rebuild and save the inverted index from the pages stored during the last
crawl, without fetching anything. Useful after changing index settings.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	arc, err := archive.Open(cfg.Index.ArchiveFile)
	if err != nil {
		return err
	}
	defer arc.Close()

	pages, err := arc.Pages(cmd.Context())
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("archive %s is empty; run a crawl first", cfg.Index.ArchiveFile)
	}

	ix := index.Build(pages, cfg.Index.SnippetLength)
	if err := ix.Save(cfg.Index.IndexFile); err != nil {
		return err
	}

	fmt.Printf("Reindexed %d documents (%d unique terms) from the archive.\n",
		ix.DocCount(), ix.TermCount())
	return nil
}
