// Package cli implements the minisearch command surface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
	"github.com/SiddhantNarel/mini-search-engine/pkg/logger"
)

const version = "1.0.0"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "minisearch",
	Short:   "A small TF-IDF web search engine",
	Version: version,
	Long: `minisearch crawls a website, builds an inverted index with TF-IDF
ranking, and answers free-text queries from the command line or over HTTP.

Example usage:
  minisearch crawl https://example.com   # Crawl and build the index
  minisearch search distributed systems  # Query the index
  minisearch serve                       # Start the web UI and API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults apply when omitted)")
}
