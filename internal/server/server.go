package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
	"github.com/SiddhantNarel/mini-search-engine/pkg/health"
	"github.com/SiddhantNarel/mini-search-engine/pkg/metrics"
	"github.com/SiddhantNarel/mini-search-engine/pkg/middleware"
	pkgredis "github.com/SiddhantNarel/mini-search-engine/pkg/redis"
)

// New builds the HTTP server: routes, middleware chain, and health checks.
// redisClient may be nil when caching is disabled.
func New(cfg *config.Config, h *Handler, m *metrics.Metrics, redisClient *pkgredis.Client) *http.Server {
	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		stats := h.engine.Stats()
		if stats.Documents == 0 {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: "index is empty; run a crawl",
			}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", stats.Documents, stats.Terms),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "caching disabled"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /search", h.SearchPage)
	mux.HandleFunc("GET /crawl", h.CrawlPage)
	mux.HandleFunc("POST /crawl", h.CrawlPage)
	mux.HandleFunc("GET /api/search", h.APISearch)
	mux.HandleFunc("GET /api/stats", h.APIStats)
	mux.HandleFunc("GET /api/cache/stats", h.APICacheStats)
	mux.HandleFunc("POST /api/crawl", h.APICrawl)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
