package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SiddhantNarel/mini-search-engine/internal/archive"
	"github.com/SiddhantNarel/mini-search-engine/internal/cache"
	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
	"github.com/SiddhantNarel/mini-search-engine/internal/server"
	"github.com/SiddhantNarel/mini-search-engine/pkg/metrics"
	pkgredis "github.com/SiddhantNarel/mini-search-engine/pkg/redis"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	arc, err := archive.Open(cfg.Index.ArchiveFile)
	if err != nil {
		slog.Warn("crawl archive unavailable, crawls will not be archived", "error", err)
		arc = nil
	} else {
		defer arc.Close()
	}

	eng := engine.New(m, cfg.Index.IndexFile, cfg.Index.SampleFile)
	handler := server.NewHandler(eng, queryCache, arc, cfg, m)
	srv := server.New(cfg, handler, m, redisClient)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("search server stopped")
	return nil
}
