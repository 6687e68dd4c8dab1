// Package server exposes the engine over HTTP: HTML pages for searching and
// triggering crawls, plus JSON endpoints for API consumers.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/SiddhantNarel/mini-search-engine/internal/archive"
	"github.com/SiddhantNarel/mini-search-engine/internal/cache"
	"github.com/SiddhantNarel/mini-search-engine/internal/crawler"
	"github.com/SiddhantNarel/mini-search-engine/internal/engine"
	"github.com/SiddhantNarel/mini-search-engine/internal/index"
	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
	"github.com/SiddhantNarel/mini-search-engine/pkg/errors"
	"github.com/SiddhantNarel/mini-search-engine/pkg/logger"
	"github.com/SiddhantNarel/mini-search-engine/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI and the JSON API.
type Handler struct {
	engine   *engine.Engine
	cache    *cache.QueryCache
	archive  *archive.Archive
	cfg      *config.Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tmpl     *template.Template
	crawling atomic.Bool
}

// NewHandler wires the engine, optional query cache, and crawl archive into
// an HTTP handler set. cache may be nil (caching disabled).
func NewHandler(eng *engine.Engine, qc *cache.QueryCache, arc *archive.Archive, cfg *config.Config, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:  eng,
		cache:   qc,
		archive: arc,
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("http-handler"),
		tmpl:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// CrawlInProgress reports whether a background crawl is running.
func (h *Handler) CrawlInProgress() bool {
	return h.crawling.Load()
}

// Home renders the search page with current index stats.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", map[string]any{
		"Stats": h.engine.Stats(),
	})
}

// SearchPage renders ranked results for the q query parameter.
func (h *Handler) SearchPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	start := time.Now()
	results := h.search(r.Context(), query, h.cfg.Search.DefaultTopK)
	elapsed := time.Since(start)

	h.render(w, "results.html", map[string]any{
		"Query":   query,
		"Results": results,
		"Count":   len(results),
		"Elapsed": elapsed.Round(time.Microsecond).String(),
	})
}

// CrawlPage renders the crawl form (GET) or starts a background crawl (POST).
func (h *Handler) CrawlPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"DefaultMaxDepth": h.cfg.Crawler.MaxDepth,
		"DefaultMaxPages": h.cfg.Crawler.MaxPages,
		"InProgress":      h.crawling.Load(),
	}

	if r.Method == http.MethodPost {
		seed := r.FormValue("seed_url")
		maxDepth := formInt(r, "max_depth", h.cfg.Crawler.MaxDepth)
		maxPages := formInt(r, "max_pages", h.cfg.Crawler.MaxPages)

		switch err := h.startCrawl(seed, maxDepth, maxPages); {
		case err == nil:
			data["Message"] = "Crawl started for " + seed + ". Search results will update once it finishes."
			data["InProgress"] = true
		default:
			data["Error"] = err.Error()
		}
	}

	h.render(w, "crawl.html", data)
}

// APISearch answers GET /api/search?q=...&top_k=... with ranked JSON results.
func (h *Handler) APISearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query().Get("q")

	topK := h.cfg.Search.DefaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, errors.New(errors.ErrInvalidInput, http.StatusBadRequest,
				"top_k must be a non-negative integer"))
			return
		}
		if parsed > h.cfg.Search.MaxTopK {
			parsed = h.cfg.Search.MaxTopK
		}
		topK = parsed
	}

	cacheStatus := "disabled"
	var results []engine.Result
	if h.cache != nil && query != "" {
		var hit bool
		results, hit = h.cache.GetOrCompute(r.Context(), query, topK, func() []engine.Result {
			return h.engine.Search(query, topK)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
		h.countCache(hit)
	} else {
		results = h.engine.Search(query, topK)
	}

	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(results)))
		h.metrics.SearchQueriesTotal.WithLabelValues(searchOutcome(query, results)).Inc()
	}

	logger.FromContext(r.Context()).Info("search completed",
		"query", query,
		"top_k", topK,
		"returned", len(results),
		"cache", cacheStatus,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

// APIStats answers GET /api/stats with index counts and crawl state.
func (h *Handler) APIStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents":         stats.Documents,
		"terms":             stats.Terms,
		"crawl_in_progress": h.crawling.Load(),
	})
}

// APICacheStats answers GET /api/cache/stats.
func (h *Handler) APICacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":   hits,
		"misses": misses,
		"total":  hits + misses,
	})
}

// APICrawl answers POST /api/crawl, starting a background crawl.
func (h *Handler) APICrawl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SeedURL  string `json:"seed_url"`
		MaxDepth *int   `json:"max_depth"`
		MaxPages *int   `json:"max_pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "invalid JSON body"))
		return
	}
	maxDepth := h.cfg.Crawler.MaxDepth
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}
	maxPages := h.cfg.Crawler.MaxPages
	if req.MaxPages != nil {
		maxPages = *req.MaxPages
	}
	if err := h.startCrawl(req.SeedURL, maxDepth, maxPages); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "crawl started"})
}

// startCrawl launches a background crawl-and-reindex run. Only one may run
// at a time; the in-progress flag is the build-side mutual exclusion for the
// whole crawl, rebuild, and index-swap sequence.
func (h *Handler) startCrawl(seed string, maxDepth, maxPages int) error {
	if seed == "" {
		return errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "seed_url is required")
	}
	if maxDepth < 0 {
		return errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "max_depth must be non-negative")
	}
	if maxPages < 1 {
		return errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "max_pages must be at least 1")
	}
	if !h.crawling.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCrawlInProgress, http.StatusConflict,
			"a crawl is already running; wait for it to finish")
	}

	crawlCfg := h.cfg.Crawler
	crawlCfg.MaxDepth = maxDepth
	crawlCfg.MaxPages = maxPages

	go func() {
		defer h.crawling.Store(false)
		h.runCrawl(crawlCfg, seed)
	}()
	return nil
}

func (h *Handler) runCrawl(crawlCfg config.CrawlerConfig, seed string) {
	ctx := context.Background()
	pages, err := crawler.New(crawlCfg, h.metrics).Crawl(ctx, seed)
	if err != nil {
		h.logger.Error("crawl failed", "seed", seed, "error", err)
		return
	}
	// An unreachable or dead seed yields zero pages without an error. Keep
	// the existing archive and index rather than replacing them with nothing.
	if len(pages) == 0 {
		h.logger.Error("crawl fetched no pages, keeping current index", "seed", seed)
		return
	}

	if h.archive != nil {
		if err := h.archive.Replace(ctx, pages); err != nil {
			h.logger.Error("archiving crawled pages failed", "error", err)
		}
	}

	ix := index.Build(pages, h.cfg.Index.SnippetLength)
	if err := ix.Save(h.cfg.Index.IndexFile); err != nil {
		h.logger.Error("saving index failed", "path", h.cfg.Index.IndexFile, "error", err)
		return
	}
	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.Add(float64(ix.DocCount()))
	}

	h.engine.Reload()
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Error("cache invalidation failed", "error", err)
		}
	}
	h.logger.Info("crawl and reindex complete",
		"seed", seed,
		"pages", len(pages),
		"documents", ix.DocCount(),
		"terms", ix.TermCount(),
	)
}

func (h *Handler) search(ctx context.Context, query string, topK int) []engine.Result {
	if h.cache != nil && query != "" {
		results, hit := h.cache.GetOrCompute(ctx, query, topK, func() []engine.Result {
			return h.engine.Search(query, topK)
		})
		h.countCache(hit)
		return results
	}
	return h.engine.Search(query, topK)
}

func (h *Handler) countCache(hit bool) {
	if h.metrics == nil {
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func searchOutcome(query string, results []engine.Result) string {
	switch {
	case len(results) > 0:
		return "results"
	case query == "":
		return "empty_query"
	default:
		return "zero_result"
	}
}

func formInt(r *http.Request, field string, fallback int) int {
	if raw := r.FormValue(field); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, errors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
}
