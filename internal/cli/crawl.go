package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/internal/archive"
	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
	"github.com/SiddhantNarel/mini-search-engine/internal/index"
)

var (
	crawlDepth int
	crawlPages int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <seed-url>",
	Short: "Crawl a website and build a fresh search index",
	Long: `Crawl breadth-first from the seed URL, staying on its host and honouring
robots.txt, then build and save a new inverted index from the fetched pages.
The previous index is replaced wholesale; crawled pages are also archived so
the index can later be rebuilt with "minisearch reindex".

Examples:
  minisearch crawl https://example.com
  minisearch crawl https://example.com --depth 1 --pages 10`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlDepth, "depth", 0, "max link depth from the seed (default from config)")
	crawlCmd.Flags().IntVar(&crawlPages, "pages", 0, "max pages to fetch (default from config)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seed := args[0]

	crawlCfg := cfg.Crawler
	if crawlDepth > 0 {
		crawlCfg.MaxDepth = crawlDepth
	}
	if crawlPages > 0 {
		crawlCfg.MaxPages = crawlPages
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(crawlCfg.MaxPages,
		progressbar.OptionSetDescription("Crawling"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)

	c := crawler.New(crawlCfg, nil)
	c.OnPage = func(fetched, max int, url string) {
		bar.Set(fetched)
	}

	pages, err := c.Crawl(ctx, seed)
	bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("crawl aborted: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages crawled from %s", seed)
	}

	if err := os.MkdirAll(cfg.Index.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	arc, err := archive.Open(cfg.Index.ArchiveFile)
	if err != nil {
		return err
	}
	defer arc.Close()
	if err := arc.Replace(ctx, pages); err != nil {
		return err
	}

	ix := index.Build(pages, cfg.Index.SnippetLength)
	if err := ix.Save(cfg.Index.IndexFile); err != nil {
		return err
	}

	fmt.Printf("Crawled %d pages, indexed %d documents (%d unique terms).\n",
		len(pages), ix.DocCount(), ix.TermCount())
	fmt.Printf("Index saved to %s\n", cfg.Index.IndexFile)
	return nil
}
